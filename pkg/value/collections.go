package value

import "fmt"

// List is a heterogeneous sequence. Plain []any is accepted wherever a List is.
type List []any

// Tuple is a fixed heterogeneous sequence; it round-trips as a Tuple rather than a List.
type Tuple []any

// Set is an insertion-ordered set of hashable scalars.
type Set struct {
	items []any
	index map[any]struct{}
}

// NewSet builds a set, dropping duplicates. Elements must be hashable scalars.
func NewSet(items ...any) (*Set, error) {
	s := &Set{items: make([]any, 0, len(items)), index: make(map[any]struct{}, len(items))}
	for _, it := range items {
		if err := s.Add(it); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts v unless it is already present.
func (s *Set) Add(v any) error {
	if !hashable(v) {
		return fmt.Errorf("set element of type %T is not hashable", v)
	}
	if _, ok := s.index[v]; ok {
		return nil
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return nil
}

func (s *Set) Contains(v any) bool {
	if !hashable(v) {
		return false
	}
	_, ok := s.index[v]
	return ok
}

func (s *Set) Len() int { return len(s.items) }

// Items returns the elements in insertion order.
func (s *Set) Items() []any {
	out := make([]any, len(s.items))
	copy(out, s.items)
	return out
}

// FrozenSet is an immutable Set.
type FrozenSet struct {
	set *Set
}

func NewFrozenSet(items ...any) (*FrozenSet, error) {
	s, err := NewSet(items...)
	if err != nil {
		return nil, err
	}
	return &FrozenSet{set: s}, nil
}

func (f *FrozenSet) Contains(v any) bool { return f.set.Contains(v) }

func (f *FrozenSet) Len() int { return f.set.Len() }

func (f *FrozenSet) Items() []any { return f.set.Items() }

func hashable(v any) bool {
	switch v.(type) {
	case nil, bool, int, int32, int64, float32, float64, complex64, complex128, string:
		return true
	default:
		return false
	}
}
