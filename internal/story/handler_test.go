package story

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fictlabs/fict/internal/session"
	"github.com/fictlabs/fict/internal/storage"
)

type fakeStore struct {
	beginStory   storage.Story
	beginSnippet storage.Snippet
	lockStory    storage.Story
	lockSnippet  storage.Snippet
	contributed  storage.Snippet
	err          error
}

func (f *fakeStore) Begin(ctx context.Context, owner storage.User, content string) (storage.Story, storage.Snippet, error) {
	if f.err != nil {
		return storage.Story{}, storage.Snippet{}, f.err
	}
	return f.beginStory, f.beginSnippet, nil
}

func (f *fakeStore) AcquireLock(ctx context.Context, storyID int64, applicant storage.User) (storage.Story, storage.Snippet, error) {
	if f.err != nil {
		return storage.Story{}, storage.Snippet{}, f.err
	}
	return f.lockStory, f.lockSnippet, nil
}

func (f *fakeStore) Contribute(ctx context.Context, storyID int64, contributor storage.User, content string) (storage.Snippet, error) {
	if f.err != nil {
		return storage.Snippet{}, f.err
	}
	return f.contributed, nil
}

// passthroughAuth stands in for the session middleware, injecting a fixed
// authenticated session.
func passthroughAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := session.WithSession(r.Context(), storage.Session{ID: 1, Token: 7, UserID: 42})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(store *fakeStore) http.Handler {
	h := NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h.Routes(passthroughAuth)
}

func TestHandler_Begin(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		beginStory:   storage.Story{ID: 5},
		beginSnippet: storage.Snippet{ID: 11, Ordinal: 1, Content: "Once upon a time"},
	}
	router := newTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"Once upon a time"}`)))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		ID      int64 `json:"id"`
		Snippet struct {
			Ordinal int32  `json:"ordinal"`
			Content string `json:"content"`
		} `json:"snippet"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.ID)
	assert.Equal(t, int32(1), resp.Snippet.Ordinal)
	assert.Equal(t, "Once upon a time", resp.Snippet.Content)
}

func TestHandler_Begin_RequiresContent(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeStore{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_AcquireLock(t *testing.T) {
	t.Parallel()

	t.Run("granted", func(t *testing.T) {
		t.Parallel()

		uid := int64(42)
		exp := time.Date(2015, time.May, 10, 17, 58, 28, 0, time.UTC)
		store := &fakeStore{
			lockStory:   storage.Story{ID: 5, LockUserID: &uid, LockExpiration: &exp},
			lockSnippet: storage.Snippet{Content: "latest snippet text"},
		}
		router := newTestRouter(store)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/5/lock", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Lock struct {
				State   string `json:"state"`
				Expires string `json:"expires"`
			} `json:"lock"`
			Snippet struct {
				Content string `json:"content"`
			} `json:"snippet"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "granted", resp.Lock.State)
		assert.Equal(t, "Sun, 10 May 2015 17:58:28 +0000", resp.Lock.Expires)
		assert.Equal(t, "latest snippet text", resp.Snippet.Content)
	})

	t.Run("denied", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{
			err: &storage.AlreadyLockedError{
				Owner:      "rival",
				Expiration: time.Date(2015, time.May, 10, 17, 58, 28, 0, time.UTC),
			},
		}
		router := newTestRouter(store)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/5/lock", nil))

		require.Equal(t, http.StatusConflict, w.Code)

		var resp struct {
			Lock struct {
				State string `json:"state"`
				Owner string `json:"owner"`
			} `json:"lock"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "denied", resp.Lock.State)
		assert.Equal(t, "rival", resp.Lock.Owner)
	})

	t.Run("unknown story", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&fakeStore{err: storage.ErrStoryNotFound})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/999/lock", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non numeric id", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&fakeStore{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/nope/lock", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Contribute(t *testing.T) {
	t.Parallel()

	t.Run("appends snippet", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{contributed: storage.Snippet{ID: 12, Ordinal: 2, Content: "and then"}}
		router := newTestRouter(store)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/5/snippets", strings.NewReader(`{"content":"and then"}`)))

		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Ordinal int32  `json:"ordinal"`
			Content string `json:"content"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int32(2), resp.Ordinal)
	})

	t.Run("without lock", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&fakeStore{err: storage.ErrLockRequired})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/5/snippets", strings.NewReader(`{"content":"x"}`)))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
