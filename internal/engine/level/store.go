package level

import (
	"sync"
	"sync/atomic"
)

// Store publishes the current Level to readers. A reload builds the new
// snapshot completely before swapping it in, so readers never see a
// partially built level.
type Store struct {
	current atomic.Pointer[Level]
	reload  sync.Mutex
}

// NewStore creates a store, optionally seeded with a level.
func NewStore(initial *Level) *Store {
	s := &Store{}
	if initial != nil {
		s.current.Store(initial)
	}
	return s
}

// Current returns the published level, or nil before the first load.
func (s *Store) Current() *Level {
	return s.current.Load()
}

// Swap publishes l and returns the previous level.
func (s *Store) Swap(l *Level) *Level {
	return s.current.Swap(l)
}

// Reload runs load and publishes its result. On error the current level
// stays in place. Concurrent reloads are serialized.
func (s *Store) Reload(load func() (*Level, error)) (*Level, error) {
	s.reload.Lock()
	defer s.reload.Unlock()

	l, err := load()
	if err != nil {
		return s.Current(), err
	}
	s.current.Store(l)
	return l, nil
}
