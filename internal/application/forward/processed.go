package forward

import "sync"

// ProcessedSet records message ids fully handled during this run.
type ProcessedSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{ids: make(map[string]struct{})}
}

func (s *ProcessedSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *ProcessedSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
