// Package oauth implements the federated-login core: a provider-agnostic
// OAuth2 handshake engine, the per-provider CSRF state store, and the
// provider capability interface with its GitHub implementation.
//
// # Flow
//
// A login begins with a redirect to the provider's authorization page,
// carrying a one-time state token minted by the provider's StateStore. The
// provider later redirects the browser back to the callback route, where the
// engine runs an ordered pipeline: extract the code and state parameters,
// consume the state (single use, atomic with the membership check), exchange
// the code for an access token at the provider's token endpoint, fetch the
// user's email and display name through the provider's API, resolve them into
// a local user, and issue a bearer session. The first failing stage aborts
// the pipeline and the request answers 400 with the failure's description; a
// consumed state is not refunded, so a failed login restarts from the
// beginning.
//
// # Concurrency
//
// The only shared mutable state is each provider's StateStore, guarded by a
// mutex held for the duration of a generate or validate call and never across
// the outbound token-exchange or profile calls. Storage-level uniqueness
// constraints (user email, session token) make concurrent callback
// completions safe.
//
// # Adding a provider
//
// Implement Provider and mount Engine.Routes for it under the shared route
// prefix. The engine itself needs no changes.
package oauth
