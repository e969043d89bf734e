package ds

// OrderedSet keeps elements unique in first-insertion order. It backs the
// union of requested output names across a batch, where the first request
// naming an output decides its position in the run.
type OrderedSet[T comparable] struct {
	index map[T]struct{}
	keys  []T
}

func NewOrderedSet[T comparable]() *OrderedSet[T] {
	return &OrderedSet[T]{index: make(map[T]struct{})}
}

// NewOrderedSetFromSlice builds a set from a slice, dropping duplicates and
// keeping each element at its first position.
func NewOrderedSetFromSlice[T comparable](items []T) *OrderedSet[T] {
	s := &OrderedSet[T]{index: make(map[T]struct{}, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts the element if absent. Re-adding never moves it.
func (s *OrderedSet[T]) Add(e T) *OrderedSet[T] {
	if _, exists := s.index[e]; !exists {
		s.index[e] = struct{}{}
		s.keys = append(s.keys, e)
	}
	return s
}

func (s *OrderedSet[T]) Has(e T) bool {
	_, exists := s.index[e]
	return exists
}

func (s *OrderedSet[T]) Size() int {
	return len(s.keys)
}

func (s *OrderedSet[T]) IsEmpty() bool {
	return len(s.keys) == 0
}

// Keys returns the elements in insertion order as a fresh slice.
func (s *OrderedSet[T]) Keys() []T {
	out := make([]T, len(s.keys))
	copy(out, s.keys)
	return out
}

// Each visits every element in insertion order.
func (s *OrderedSet[T]) Each(f func(T)) {
	for _, k := range s.keys {
		f(k)
	}
}
