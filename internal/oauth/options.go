package oauth

import (
	"fmt"
	"strings"
	"time"
)

// Options holds the connection parameters common to every supported provider.
// An Options value is built once at process start from trusted configuration
// and shared read-only across all requests for that provider.
type Options struct {
	// Name identifies the provider in routes and logs, e.g. "github".
	Name string

	// RoutePrefix is the path segment the provider's login routes are mounted
	// under, e.g. "/auth". The login route becomes {RoutePrefix}/{Name} and
	// the callback route {RoutePrefix}/{Name}/callback.
	RoutePrefix string

	// ClientID and ClientSecret are the credentials registered with the
	// provider for this application.
	ClientID     string
	ClientSecret string

	// AuthURL is the provider's authorization endpoint the user's browser is
	// redirected to.
	AuthURL string

	// TokenURL is the provider's endpoint for exchanging an authorization
	// code for an access token.
	TokenURL string

	// CallbackBaseURL is the externally reachable scheme and host of this
	// server, used to derive the redirect URI sent to the provider.
	CallbackBaseURL string
}

// LoginPath returns the route that starts the handshake for this provider.
func (o *Options) LoginPath() string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(o.RoutePrefix, "/"), o.Name)
}

// CallbackPath returns the route the provider redirects back to.
func (o *Options) CallbackPath() string {
	return o.LoginPath() + "/callback"
}

// RedirectURL returns the absolute callback URL registered with the provider.
func (o *Options) RedirectURL() string {
	return strings.TrimSuffix(o.CallbackBaseURL, "/") + o.CallbackPath()
}

// GitHubConfig carries the environment-supplied settings for the GitHub
// provider.
type GitHubConfig struct {
	ClientID        string        `env:"GITHUB_OAUTH_CLIENT_ID,required"`
	ClientSecret    string        `env:"GITHUB_OAUTH_CLIENT_SECRET,required"`
	RoutePrefix     string        `env:"OAUTH_ROUTE_PREFIX" envDefault:"/auth"`
	CallbackBaseURL string        `env:"OAUTH_CALLBACK_BASE_URL" envDefault:"http://localhost:8080"`
	StateTTL        time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
}
