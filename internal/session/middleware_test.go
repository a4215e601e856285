package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fictlabs/fict/internal/storage"
)

type fakeValidator struct {
	session storage.Session
	err     error
	calls   int
}

func (f *fakeValidator) Validate(ctx context.Context, token int64) (storage.Session, error) {
	f.calls++
	if f.err != nil {
		return storage.Session{}, f.err
	}
	if token != f.session.Token {
		return storage.Session{}, storage.ErrSessionNotFound
	}
	return f.session, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireUser(t *testing.T) {
	t.Parallel()

	issued := storage.Session{ID: 1, Token: 424242, UserID: 9}

	newHandler := func(v Validator) (http.Handler, *storage.Session) {
		var got storage.Session
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := FromContext(r.Context())
			require.True(t, ok)
			got = s
			w.WriteHeader(http.StatusOK)
		})
		return RequireUser(v, discardLogger())(inner), &got
	}

	t.Run("valid token reaches handler", func(t *testing.T) {
		t.Parallel()

		v := &fakeValidator{session: issued}
		h, got := newHandler(v)

		r := httptest.NewRequest(http.MethodPost, "/stories/1/lock", nil)
		r.Header.Set("Authorization", "Bearer 424242")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, issued, *got)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()

		v := &fakeValidator{session: issued}
		h, _ := newHandler(v)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, v.calls, "malformed credentials never hit storage")
	})

	t.Run("non numeric token", func(t *testing.T) {
		t.Parallel()

		v := &fakeValidator{session: issued}
		h, _ := newHandler(v)

		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, v.calls)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()

		v := &fakeValidator{session: issued}
		h, _ := newHandler(v)

		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer 424243")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("storage failure is not unauthorized", func(t *testing.T) {
		t.Parallel()

		v := &fakeValidator{err: errors.New("connection reset")}
		h, _ := newHandler(v)

		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Authorization", "Bearer 424242")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
