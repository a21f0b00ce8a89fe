package store

import "sync"

// Selection is the ordered set of evaluation IDs marked for downstream
// display and filtering. Order is first-selection order; reselecting an
// already-selected ID does not move it. Safe for concurrent use.
type Selection struct {
	mu    sync.RWMutex
	set   map[string]struct{}
	order []string
}

// NewSelection creates an empty selection store.
func NewSelection() *Selection {
	return &Selection{set: make(map[string]struct{})}
}

// Select marks an ID as selected. It reports false when the ID was already
// selected, letting callers observe the no-op.
func (s *Selection) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.set[id]; exists {
		return false
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Deselect unmarks an ID. It reports false when the ID was not selected.
func (s *Selection) Deselect(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.set[id]; !exists {
		return false
	}
	delete(s.set, id)
	for i, ordered := range s.order {
		if ordered == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Toggle flips an ID's selection and reports the new state.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.set[id]; exists {
		delete(s.set, id)
		for i, ordered := range s.order {
			if ordered == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return false
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// IsSelected reports whether an ID is selected.
func (s *Selection) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[id]
	return ok
}

// Selected returns the selected IDs in first-selection order.
func (s *Selection) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of selected IDs.
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.set)
}

// Clear deselects everything. Used on session reset.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = make(map[string]struct{})
	s.order = nil
}
