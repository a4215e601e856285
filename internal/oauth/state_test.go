package oauth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_SingleUse(t *testing.T) {
	t.Parallel()

	store := NewStateStore(time.Minute)

	state, err := store.Generate()
	require.NoError(t, err)
	require.NotEmpty(t, state)

	assert.True(t, store.Validate(state), "first validation should succeed")
	assert.False(t, store.Validate(state), "replayed state should fail")
	assert.False(t, store.Validate(state), "and keep failing")
}

func TestStateStore_UnknownState(t *testing.T) {
	t.Parallel()

	store := NewStateStore(time.Minute)

	_, err := store.Generate()
	require.NoError(t, err)

	assert.False(t, store.Validate("never-issued"), "state this store never issued must not validate")
	assert.Equal(t, 1, store.Len(), "a failed validation must not consume other states")
}

func TestStateStore_Unpredictability(t *testing.T) {
	t.Parallel()

	store := NewStateStore(time.Minute)

	seen := make(map[string]struct{}, 10000)
	for range 10000 {
		state, err := store.Generate()
		require.NoError(t, err)
		_, dup := seen[state]
		require.False(t, dup, "generated states must not collide")
		seen[state] = struct{}{}
	}
}

func TestStateStore_Expiry(t *testing.T) {
	t.Parallel()

	store := NewStateStore(time.Minute)

	now := time.Now()
	store.now = func() time.Time { return now }

	state, err := store.Generate()
	require.NoError(t, err)

	// Past the TTL the state no longer validates.
	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.False(t, store.Validate(state))
}

func TestStateStore_EvictsExpiredOnGenerate(t *testing.T) {
	t.Parallel()

	store := NewStateStore(time.Minute)

	now := time.Now()
	store.now = func() time.Time { return now }

	for range 50 {
		_, err := store.Generate()
		require.NoError(t, err)
	}
	require.Equal(t, 50, store.Len())

	// Everything issued above has lapsed; the next generate sweeps it.
	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := store.Generate()
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestStateStore_ConcurrentUse(t *testing.T) {
	t.Parallel()

	store := NewStateStore(time.Minute)

	const workers = 16
	const perWorker = 100

	var wg sync.WaitGroup
	validations := make(chan bool, workers*perWorker)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				state, err := store.Generate()
				if err != nil {
					validations <- false
					continue
				}
				validations <- store.Validate(state)
			}
		}()
	}
	wg.Wait()
	close(validations)

	for ok := range validations {
		require.True(t, ok, "every issued state must validate exactly once")
	}
	assert.Equal(t, 0, store.Len())
}
