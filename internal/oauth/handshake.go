package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fictlabs/fict/internal/storage"
	"github.com/fictlabs/fict/pkg/logger"
)

// UserStore resolves a verified external identity into a local user.
type UserStore interface {
	// FindOrCreate looks a user up by email, creating one with the given
	// display name if none exists. The returned user always carries a
	// persisted ID.
	FindOrCreate(ctx context.Context, email, name string) (storage.User, error)
}

// SessionStore issues bearer sessions for resolved users.
type SessionStore interface {
	// Assign creates a new session referencing the given user.
	Assign(ctx context.Context, user storage.User) (storage.Session, error)
}

// Engine drives the provider-agnostic OAuth2 handshake: the request-phase
// redirect and the callback-phase pipeline that converts an authorization
// code into a local session. One Engine is constructed per provider.
type Engine struct {
	provider Provider
	users    UserStore
	sessions SessionStore
	client   *http.Client
	log      *slog.Logger
}

// EngineOption configures an Engine during construction.
type EngineOption func(*Engine)

// WithLogger sets the logger used for handshake diagnostics.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithHTTPClient overrides the client used for outbound provider calls.
func WithHTTPClient(c *http.Client) EngineOption {
	return func(e *Engine) {
		e.client = c
	}
}

// NewEngine constructs a handshake engine for one provider. Outbound calls to
// the provider carry a 10 second timeout by default; the logger discards
// unless configured.
func NewEngine(p Provider, users UserStore, sessions SessionStore, opts ...EngineOption) *Engine {
	e := &Engine{
		provider: p,
		users:    users,
		sessions: sessions,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Routes returns the two routes the provider needs: GET /{name} to begin the
// handshake and GET /{name}/callback to complete it. Mount the result under
// the provider's route prefix.
func (e *Engine) Routes() chi.Router {
	r := chi.NewRouter()
	name := e.provider.Options().Name
	r.Get("/"+name, e.Begin)
	r.Get("/"+name+"/callback", e.Callback)
	return r
}

// Begin redirects the browser to the provider's authorization page with a
// freshly minted state parameter. Each call issues a new, independent state.
func (e *Engine) Begin(w http.ResponseWriter, r *http.Request) {
	o := e.provider.Options()

	state, err := e.provider.States().Generate()
	if err != nil {
		e.log.ErrorContext(r.Context(), "failed to generate state",
			logger.Provider(o.Name), logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to generate state"})
		return
	}

	q := url.Values{}
	q.Set("client_id", o.ClientID)
	q.Set("redirect_uri", o.RedirectURL())
	q.Set("scope", e.provider.Scopes())
	q.Set("state", state)
	dest := o.AuthURL + "?" + q.Encode()

	e.log.DebugContext(r.Context(), "redirecting to provider",
		logger.Provider(o.Name), slog.String("url", o.AuthURL))

	http.Redirect(w, r, dest, http.StatusFound)
}

// Callback accepts the redirect back from the provider and runs the
// completion pipeline. A success responds 200 with the new session token;
// any pipeline failure responds 400 with the failure's description.
func (e *Engine) Callback(w http.ResponseWriter, r *http.Request) {
	o := e.provider.Options()

	session, err := e.complete(r)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			// Distinguish possible forgeries from benign client mistakes.
			e.log.WarnContext(r.Context(), "rejected callback state",
				logger.Provider(o.Name), logger.Error(err))
		} else {
			e.log.InfoContext(r.Context(), "handshake failed",
				logger.Provider(o.Name), logger.Error(err))
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	e.log.DebugContext(r.Context(), "handshake completed",
		logger.Provider(o.Name), logger.UserID(session.UserID))

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:  strconv.FormatInt(session.Token, 10),
		UserID: session.UserID,
	})
}

// complete runs the ordered callback pipeline. Each stage must succeed before
// the next runs; a state consumed in stage two is not refunded if a later
// stage fails.
func (e *Engine) complete(r *http.Request) (storage.Session, error) {
	ctx := r.Context()

	code, state, err := e.extractParams(r)
	if err != nil {
		return storage.Session{}, err
	}

	if !e.provider.States().Validate(state) {
		return storage.Session{}, ErrInvalidState
	}

	accessToken, err := e.exchangeCode(ctx, code)
	if err != nil {
		return storage.Session{}, err
	}

	identity, err := e.provider.UserData(ctx, accessToken)
	if err != nil {
		return storage.Session{}, errors.Join(ErrProviderAPI, err)
	}

	user, err := e.users.FindOrCreate(ctx, identity.Email, identity.Name)
	if err != nil {
		return storage.Session{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	return e.sessions.Assign(ctx, user)
}

// extractParams pulls code and state out of the callback query string.
// Unrecognized parameters are logged and ignored rather than rejected.
func (e *Engine) extractParams(r *http.Request) (code, state string, err error) {
	if r.URL.RawQuery == "" {
		return "", "", fmt.Errorf("%w: no query string", ErrMissingParams)
	}

	for key, values := range r.URL.Query() {
		switch key {
		case "code":
			code = values[0]
		case "state":
			state = values[0]
		default:
			e.log.WarnContext(r.Context(), "unrecognized callback parameter",
				logger.Provider(e.provider.Options().Name), slog.String("key", key))
		}
	}

	if code == "" || state == "" {
		return "", "", ErrMissingParams
	}
	return code, state, nil
}

// tokenResponse is the subset of the provider's token endpoint reply the
// engine cares about.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// exchangeCode redeems an authorization code for an access token at the
// provider's token endpoint.
func (e *Engine) exchangeCode(ctx context.Context, code string) (string, error) {
	o := e.provider.Options()

	form := url.Values{}
	form.Set("client_id", o.ClientID)
	form.Set("client_secret", o.ClientSecret)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Join(ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", errors.Join(ErrTokenExchange, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned status %d", ErrTokenExchange, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Join(ErrTokenExchange, err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", errors.Join(ErrTokenExchange, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: response missing access_token", ErrTokenExchange)
	}
	return tok.AccessToken, nil
}

type sessionResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
