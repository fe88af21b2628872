package recorder

import "sync"

// frameSlot is a single guarded latest-value cache for the most recent
// encoded output frame. Latest-value-wins: readers polling faster than the
// producer see repeats, slower readers skip frames, and no reader can block
// the producer.
type frameSlot struct {
	mu   sync.RWMutex
	data []byte
	seq  uint64
}

// Set replaces the slot's value.
func (s *frameSlot) Set(data []byte) {
	s.mu.Lock()
	s.data = data
	s.seq++
	s.mu.Unlock()
}

// Get returns the current value and its sequence number. The returned
// slice is the stored buffer; callers must not mutate it.
func (s *frameSlot) Get() ([]byte, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.seq
}
