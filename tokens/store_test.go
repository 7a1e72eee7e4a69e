package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(time.Second * 600)

	pair := Pair{
		VideoURL: "https://cdn.example.com/video.mp4",
		AudioURL: "https://cdn.example.com/audio.webm",
	}
	token := store.Create(pair)
	require.NotEmpty(t, token)

	got, ok := store.Get(token)
	require.True(t, ok)
	assert.Equal(t, pair, got)

	// Repeated reads before expiry are idempotent lookups.
	got, ok = store.Get(token)
	require.True(t, ok)
	assert.Equal(t, pair, got)
}

func TestStoreTokensAreUnique(t *testing.T) {
	store := NewStore(time.Minute)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token := store.Create(Pair{VideoURL: "v", AudioURL: "a"})
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestStoreExpiry(t *testing.T) {
	store := NewStore(time.Second * 600)
	current := time.Now()
	store.now = func() time.Time { return current }

	token := store.Create(Pair{VideoURL: "v", AudioURL: "a"})

	current = current.Add(time.Second * 599)
	_, ok := store.Get(token)
	assert.True(t, ok)

	current = current.Add(time.Second * 2)
	_, ok = store.Get(token)
	assert.False(t, ok)

	// No resurrection: the entry is gone, not just hidden.
	current = current.Add(-time.Second * 100)
	_, ok = store.Get(token)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(time.Minute)

	token := store.Create(Pair{VideoURL: "v", AudioURL: "a"})
	store.Delete(token)

	_, ok := store.Get(token)
	assert.False(t, ok)

	// Deleting twice is harmless.
	store.Delete(token)
}

func TestStoreSweep(t *testing.T) {
	store := NewStore(time.Second * 10)
	current := time.Now()
	store.now = func() time.Time { return current }

	stale := store.Create(Pair{VideoURL: "v1", AudioURL: "a1"})
	current = current.Add(time.Second * 11)
	fresh := store.Create(Pair{VideoURL: "v2", AudioURL: "a2"})

	store.Sweep()

	assert.Equal(t, 1, store.Len())
	_, ok := store.Get(stale)
	assert.False(t, ok)
	_, ok = store.Get(fresh)
	assert.True(t, ok)
}
