package oauth

import "errors"

// Handshake failure taxonomy. Every callback pipeline stage maps its failures
// onto exactly one of these so that handlers and logs can classify them with
// errors.Is without inspecting messages.
var (
	// ErrMissingParams indicates the callback request arrived without the
	// required code and state query parameters.
	ErrMissingParams = errors.New("oauth: callback missing required query parameters")

	// ErrInvalidState indicates the callback carried a state value this server
	// never issued, or one that was already consumed. Possible forgery.
	ErrInvalidState = errors.New("oauth: unfamiliar state, possible cross-site request forgery")

	// ErrTokenExchange indicates the code-for-token exchange with the
	// provider's token endpoint failed.
	ErrTokenExchange = errors.New("oauth: token exchange failed")

	// ErrProviderAPI indicates the provider's user-info API call failed.
	ErrProviderAPI = errors.New("oauth: provider API request failed")
)
