// Package story exposes the collaborative-writing HTTP surface: beginning a
// story, acquiring its write lock, and contributing snippets.
package story

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fictlabs/fict/internal/session"
	"github.com/fictlabs/fict/internal/storage"
	"github.com/fictlabs/fict/pkg/logger"
)

// timestampFormat is the DateTime format used throughout the API:
// `Fri, 10 May 2015 17:58:28 +0000`.
const timestampFormat = "Mon, 02 Jan 2006 15:04:05 -0700"

// Store is the storage surface the handlers need.
type Store interface {
	Begin(ctx context.Context, owner storage.User, content string) (storage.Story, storage.Snippet, error)
	AcquireLock(ctx context.Context, storyID int64, applicant storage.User) (storage.Story, storage.Snippet, error)
	Contribute(ctx context.Context, storyID int64, contributor storage.User, content string) (storage.Snippet, error)
}

// Handler serves the /stories routes.
type Handler struct {
	stories Store
	log     *slog.Logger
}

// NewHandler creates the story handler.
func NewHandler(stories Store, log *slog.Logger) *Handler {
	return &Handler{stories: stories, log: log}
}

// Routes returns the /stories router. All routes require an authenticated
// session, enforced by the given middleware.
func (h *Handler) Routes(requireUser func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireUser)
	r.Post("/", h.begin)
	r.Post("/{id}/lock", h.acquireLock)
	r.Post("/{id}/snippets", h.contribute)
	return r
}

type contributionRequest struct {
	Content string `json:"content"`
}

type snippetPayload struct {
	ID      int64  `json:"id,omitempty"`
	Ordinal int32  `json:"ordinal,omitempty"`
	Content string `json:"content"`
}

type lockGranted struct {
	State   string `json:"state"`
	Expires string `json:"expires"`
}

type lockGrantedResponse struct {
	Lock    lockGranted    `json:"lock"`
	Snippet snippetPayload `json:"snippet"`
}

type lockDenied struct {
	State   string `json:"state"`
	Owner   string `json:"owner"`
	Expires string `json:"expires"`
}

type lockDeniedResponse struct {
	Lock lockDenied `json:"lock"`
}

type storyResponse struct {
	ID      int64          `json:"id"`
	Snippet snippetPayload `json:"snippet"`
}

// begin starts a new story with its first snippet.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req contributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	s, snippet, err := h.stories.Begin(r.Context(), user, req.Content)
	if err != nil {
		h.log.ErrorContext(r.Context(), "unable to begin story", logger.Error(err), logger.UserID(user.ID))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, storyResponse{
		ID: s.ID,
		Snippet: snippetPayload{
			ID:      snippet.ID,
			Ordinal: snippet.Ordinal,
			Content: snippet.Content,
		},
	})
}

// acquireLock claims the write lock on an existing story and returns the most
// recent contributed snippet.
func (h *Handler) acquireLock(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	storyID, err := storyIDParam(r)
	if err != nil {
		http.Error(w, "id must be numeric", http.StatusBadRequest)
		return
	}

	s, latest, err := h.stories.AcquireLock(r.Context(), storyID, user)
	if err != nil {
		var locked *storage.AlreadyLockedError
		switch {
		case errors.As(err, &locked):
			writeJSON(w, http.StatusConflict, lockDeniedResponse{
				Lock: lockDenied{
					State:   "denied",
					Owner:   locked.Owner,
					Expires: locked.Expiration.Format(timestampFormat),
				},
			})
		case errors.Is(err, storage.ErrStoryNotFound):
			http.Error(w, "story not found", http.StatusNotFound)
		default:
			h.log.ErrorContext(r.Context(), "unable to lock story for write",
				logger.Error(err), logger.StoryID(storyID))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	var expires string
	if s.LockExpiration != nil {
		expires = s.LockExpiration.Format(timestampFormat)
	}

	writeJSON(w, http.StatusOK, lockGrantedResponse{
		Lock:    lockGranted{State: "granted", Expires: expires},
		Snippet: snippetPayload{Content: latest.Content},
	})
}

// contribute appends the next snippet to a story. The caller must hold the
// story's write lock.
func (h *Handler) contribute(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	storyID, err := storyIDParam(r)
	if err != nil {
		http.Error(w, "id must be numeric", http.StatusBadRequest)
		return
	}

	var req contributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	snippet, err := h.stories.Contribute(r.Context(), storyID, user, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrLockRequired):
			http.Error(w, "story write lock not held", http.StatusConflict)
		case errors.Is(err, storage.ErrStoryNotFound):
			http.Error(w, "story not found", http.StatusNotFound)
		default:
			h.log.ErrorContext(r.Context(), "unable to contribute snippet",
				logger.Error(err), logger.StoryID(storyID))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, snippetPayload{
		ID:      snippet.ID,
		Ordinal: snippet.Ordinal,
		Content: snippet.Content,
	})
}

func requestUser(r *http.Request) (storage.User, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return storage.User{}, false
	}
	return storage.User{ID: s.UserID}, true
}

func storyIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
