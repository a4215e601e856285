package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/github"
)

const githubAPIBase = "https://api.github.com"

// ErrNoVerifiedEmail indicates none of the account's addresses were usable.
var ErrNoVerifiedEmail = errors.New("oauth: no verified email on github account")

// GitHub implements Provider for github.com accounts.
type GitHub struct {
	opts    Options
	states  *StateStore
	client  *http.Client
	apiBase string
}

// GitHubOption configures the GitHub provider.
type GitHubOption func(*GitHub)

// WithGitHubAPIBase overrides the API host, for tests.
func WithGitHubAPIBase(base string) GitHubOption {
	return func(g *GitHub) {
		g.apiBase = strings.TrimSuffix(base, "/")
	}
}

// WithGitHubHTTPClient overrides the client used for profile lookups.
func WithGitHubHTTPClient(c *http.Client) GitHubOption {
	return func(g *GitHub) {
		g.client = c
	}
}

// NewGitHub builds the GitHub provider from configuration. Endpoint URLs come
// from the canonical oauth2 endpoint definitions.
func NewGitHub(cfg GitHubConfig, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		opts: Options{
			Name:            "github",
			RoutePrefix:     cfg.RoutePrefix,
			ClientID:        cfg.ClientID,
			ClientSecret:    cfg.ClientSecret,
			AuthURL:         github.Endpoint.AuthURL,
			TokenURL:        github.Endpoint.TokenURL,
			CallbackBaseURL: cfg.CallbackBaseURL,
		},
		states:  NewStateStore(cfg.StateTTL),
		client:  &http.Client{Timeout: 10 * time.Second},
		apiBase: githubAPIBase,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Options returns the provider's static connection parameters.
func (g *GitHub) Options() *Options {
	return &g.opts
}

// States returns the provider's CSRF state store.
func (g *GitHub) States() *StateStore {
	return g.states
}

// Scopes requests read access to the account's email addresses.
func (g *GitHub) Scopes() string {
	return "user:email"
}

type githubUser struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// UserData fetches the authenticated user's email and display name from the
// GitHub API. The profile endpoint only exposes an email when it is public,
// so the emails endpoint serves as a fallback, preferring the primary
// verified address.
func (g *GitHub) UserData(ctx context.Context, accessToken string) (Identity, error) {
	var user githubUser
	if err := g.get(ctx, "/user", accessToken, &user); err != nil {
		return Identity{}, err
	}

	email := user.Email
	if email == "" {
		var emails []githubEmail
		if err := g.get(ctx, "/user/emails", accessToken, &emails); err != nil {
			return Identity{}, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
		if email == "" {
			for _, e := range emails {
				if e.Verified {
					email = e.Email
					break
				}
			}
		}
		if email == "" {
			return Identity{}, ErrNoVerifiedEmail
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return Identity{
		Email: normalizeEmail(email),
		Name:  name,
	}, nil
}

func (g *GitHub) get(ctx context.Context, path, accessToken string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// normalizeEmail canonicalizes addresses before they reach the users table,
// so repeat logins with different casing resolve to the same row.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ Provider = (*GitHub)(nil)
