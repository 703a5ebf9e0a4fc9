package orderedset

// Set keeps the first occurrence of every item, in insertion order.
// The zero value is ready to use.
type Set[T comparable] struct {
	items []T
	seen  map[T]struct{}
}

// Insert adds item and reports whether it was not already present.
func (s *Set[T]) Insert(item T) bool {
	if s.seen == nil {
		s.seen = make(map[T]struct{})
	}
	if _, ok := s.seen[item]; ok {
		return false
	}
	s.seen[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// IntoSlice hands over the collected items and leaves the set empty.
func (s *Set[T]) IntoSlice() []T {
	items := s.items
	s.items = nil
	s.seen = nil
	if items == nil {
		return []T{}
	}
	return items
}
