package store

import (
	"sync"

	"github.com/nulltoken/heimdall2/errors"
)

// Store is the registration arena for evaluations: a map keyed by
// evaluation ID plus the insertion order, so listings replay the order in
// which ingestions completed. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*Evaluation
	order []string
}

// NewStore creates an empty registration store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*Evaluation)}
}

// Add registers an evaluation. IDs are minted fresh per ingestion, so a
// duplicate means a caller bug and is rejected.
func (s *Store) Add(eval *Evaluation) error {
	if eval == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil evaluation")
	}
	if eval.ID() == "" {
		return errors.Wrap(errors.ErrInvalidInput, "evaluation has no ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[eval.id]; exists {
		return errors.Wrapf(errors.ErrInvalidInput, "evaluation already registered: %s", eval.id)
	}
	s.byID[eval.id] = eval
	s.order = append(s.order, eval.id)
	return nil
}

// Get returns the evaluation for an ID.
func (s *Store) Get(id string) (*Evaluation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eval, ok := s.byID[id]
	return eval, ok
}

// All returns the registered evaluations in insertion order.
func (s *Store) All() []*Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Evaluation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Summaries returns listing rows for all evaluations in insertion order.
func (s *Store) Summaries() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Summarize())
	}
	return out
}

// Remove deletes an evaluation and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; !exists {
		return false
	}
	delete(s.byID, id)
	for i, ordered := range s.order {
		if ordered == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear drops all registered evaluations. Used on session reset.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*Evaluation)
	s.order = nil
}

// Len returns the number of registered evaluations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
