package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pair is the deferred merge input a token stands for.
type Pair struct {
	VideoURL string
	AudioURL string
}

type entry struct {
	pair      Pair
	createdAt time.Time
}

// Store maps opaque tokens to pending merge pairs. Expiry is enforced lazily
// on read as a pure function of the stored timestamp, never via per-entry
// timers. A single mutex guards the map; entry counts stay small.
type Store struct {
	lock    sync.Mutex
	ttl     time.Duration
	entries map[string]entry

	now func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: map[string]entry{},
		now:     time.Now,
	}
}

// Create stores the pair under a fresh random token.
func (s *Store) Create(pair Pair) string {
	token := uuid.NewString()

	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries[token] = entry{pair: pair, createdAt: s.now()}
	return token
}

// Get returns the pair for a live token. An expired entry is evicted and
// reported absent, even if physically still present.
func (s *Store) Get(token string) (Pair, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return Pair{}, false
	}
	if s.now().Sub(e.createdAt) > s.ttl {
		delete(s.entries, token)
		return Pair{}, false
	}
	return e.pair, true
}

func (s *Store) Delete(token string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.entries, token)
}

// Sweep evicts expired entries. Not required for correctness, only bounds
// memory between reads.
func (s *Store) Sweep() {
	s.lock.Lock()
	defer s.lock.Unlock()

	var deleteKeys []string
	for token, e := range s.entries {
		if s.now().Sub(e.createdAt) > s.ttl {
			deleteKeys = append(deleteKeys, token)
		}
	}
	for _, token := range deleteKeys {
		delete(s.entries, token)
	}
}

// Run sweeps on the given interval until the context is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Len reports the number of physically stored entries, expired or not.
func (s *Store) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.entries)
}
