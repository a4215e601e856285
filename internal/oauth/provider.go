package oauth

import "context"

// Identity is the transient (email, display name) pair retrieved from a
// provider's user-info API. It is never persisted as-is; the handshake engine
// immediately resolves it into a local user.
type Identity struct {
	Email string
	Name  string
}

// Provider is the capability implemented once per external identity service.
// The handshake engine is written against this interface and stays
// provider-agnostic; adding a provider means implementing Provider and
// mounting its routes.
type Provider interface {
	// Options returns the provider's static connection parameters.
	Options() *Options

	// States returns the provider's CSRF state store. Each provider owns
	// exactly one store for the process lifetime.
	States() *StateStore

	// Scopes returns the scopes to request during authorization, in the
	// format the provider expects.
	Scopes() string

	// UserData uses an access token to look up the authenticated user's
	// email address and display name through the provider's API. The token
	// is not reused afterward.
	UserData(ctx context.Context, accessToken string) (Identity, error)
}
