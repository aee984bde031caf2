package state

import (
	"sync"
)

// Sequencer hands out increasing tickets per key. A response is applied only if the
// ticket of its request is still the latest for that key.
type Sequencer struct {
	mu      sync.Mutex
	tickets map[string]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{tickets: make(map[string]uint64)}
}

// Next returns a new ticket for key, superseding every previous one.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tickets[key]++
	return s.tickets[key]
}

func (s *Sequencer) IsLatest(key string, ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tickets[key] == ticket
}

// Reset invalidates the outstanding tickets of every key. Tickets keep increasing so
// an old ticket never becomes current again.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.tickets {
		s.tickets[key]++
	}
}
