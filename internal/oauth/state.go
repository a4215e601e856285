package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// stateBytes is the number of random bytes drawn per state token. The encoded
// token is a fixed 43-character URL-safe string.
const stateBytes = 32

// defaultStateTTL bounds how long an issued state stays valid. Abandoned
// logins would otherwise grow the valid-state set forever.
const defaultStateTTL = 10 * time.Minute

// StateStore tracks the anti-forgery state tokens issued for a single
// provider. A token is a member of the store if and only if it was generated
// here and has not yet been consumed by a successful validation.
//
// All methods are safe for concurrent use. The internal lock is held only for
// the duration of a generate or validate call, never across network I/O.
type StateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[string]time.Time // token -> expiry
	now    func() time.Time
}

// NewStateStore creates an empty store. A non-positive ttl falls back to the
// default of ten minutes.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateStore{
		ttl:    ttl,
		states: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Generate mints a fresh unguessable state token, remembers it as valid, and
// returns it. Expired leftovers from abandoned logins are swept here, while
// the lock is already held, keeping the set bounded by the TTL window.
func (s *StateStore) Generate() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for tok, exp := range s.states {
		if now.After(exp) {
			delete(s.states, tok)
		}
	}
	s.states[state] = now.Add(s.ttl)
	return state, nil
}

// Validate reports whether candidate is a currently valid state and consumes
// it. The check and the removal are a single critical section, so a state can
// validate successfully at most once regardless of concurrent callbacks.
func (s *StateStore) Validate(candidate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.states[candidate]
	if !ok {
		return false
	}
	delete(s.states, candidate)
	return !s.now().After(exp)
}

// Len reports the number of outstanding states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
