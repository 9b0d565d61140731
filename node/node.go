// Package node defines the closed set of shapes a nested structure is made of.
//
// A Node is exactly one of *Mapping, *Sequence, *Set or Scalar. Text and byte
// sequences are always Scalars even though they can be indexed.
package node

import (
	"iter"

	"github.com/ehsanranjbar/flatkv/internal/ordmap"
)

// Node is a value inside a nested structure.
type Node interface {
	node()
}

// Shape is the kind of a Node.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeMapping
	ShapeSequence
	ShapeSet
)

// String implements fmt.Stringer.
func (s Shape) String() string {
	switch s {
	case ShapeMapping:
		return "mapping"
	case ShapeSequence:
		return "sequence"
	case ShapeSet:
		return "set"
	default:
		return "scalar"
	}
}

// Kind returns the shape of the given node. A nil node is a scalar.
func Kind(n Node) Shape {
	switch n.(type) {
	case *Mapping:
		return ShapeMapping
	case *Sequence:
		return ShapeSequence
	case *Set:
		return ShapeSet
	default:
		return ShapeScalar
	}
}

// Scalar is a leaf value.
type Scalar struct {
	Value any
}

// ScalarOf wraps v in a Scalar.
func ScalarOf(v any) Scalar {
	return Scalar{Value: v}
}

// Entry is a key-value pair of a Mapping.
type Entry struct {
	Key   string
	Value Node
}

// E is shorthand for creating an Entry.
func E(key string, value Node) Entry {
	return Entry{Key: key, Value: value}
}

// Mapping is an ordered collection of unique keys to nodes.
// The zero value is an empty mapping ready to use; a nil *Mapping reads as empty.
type Mapping struct {
	m *ordmap.Map[string, Node]
}

// NewMapping creates a new Mapping from the given entries.
// A repeated key keeps its first position and its last value.
func NewMapping(entries ...Entry) *Mapping {
	m := &Mapping{m: ordmap.New[string, Node]()}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Set sets the value of key. An existing key keeps its position.
func (m *Mapping) Set(key string, value Node) {
	if m.m == nil {
		m.m = ordmap.New[string, Node]()
	}
	m.m.Set(key, value)
}

// Get returns the value of key.
func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil || m.m == nil {
		return nil, false
	}
	return m.m.Get(key)
}

// Delete removes key from the mapping.
func (m *Mapping) Delete(key string) {
	if m == nil || m.m == nil {
		return
	}
	m.m.Delete(key)
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Len()
}

// All iterates over the entries in insertion order.
func (m *Mapping) All() iter.Seq2[string, Node] {
	if m == nil || m.m == nil {
		return func(func(string, Node) bool) {}
	}
	return m.m.Iter()
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	items []Node
}

// NewSequence creates a new Sequence from the given items.
func NewSequence(items ...Node) *Sequence {
	return &Sequence{items: items}
}

// Append appends items to the sequence.
func (s *Sequence) Append(items ...Node) {
	s.items = append(s.items, items...)
}

// At returns the item at index i.
func (s *Sequence) At(i int) (Node, bool) {
	if s == nil || i < 0 || i >= len(s.items) {
		return nil, false
	}
	return s.items[i], true
}

// Len returns the number of items.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// All iterates over the items by position.
func (s *Sequence) All() iter.Seq2[int, Node] {
	if s == nil {
		return enumerate(nil)
	}
	return enumerate(s.items)
}

// Set is an unordered collection of nodes. Its enumeration order is the order it
// was built in and carries no meaning.
type Set struct {
	items []Node
}

// NewSet creates a new Set. Repeated comparable scalars are dropped.
func NewSet(items ...Node) *Set {
	s := &Set{items: make([]Node, 0, len(items))}
	seen := make(map[any]struct{}, len(items))
	for _, it := range items {
		if sc, ok := it.(Scalar); ok && isComparable(sc.Value) {
			if _, dup := seen[sc.Value]; dup {
				continue
			}
			seen[sc.Value] = struct{}{}
		}
		s.items = append(s.items, it)
	}
	return s
}

// At returns the item enumerated at index i.
func (s *Set) At(i int) (Node, bool) {
	if s == nil || i < 0 || i >= len(s.items) {
		return nil, false
	}
	return s.items[i], true
}

// Len returns the number of items.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// All enumerates the items.
func (s *Set) All() iter.Seq2[int, Node] {
	if s == nil {
		return enumerate(nil)
	}
	return enumerate(s.items)
}

func enumerate(items []Node) iter.Seq2[int, Node] {
	return func(yield func(int, Node) bool) {
		for i, it := range items {
			if !yield(i, it) {
				return
			}
		}
	}
}

func (*Mapping) node()  {}
func (*Sequence) node() {}
func (*Set) node()      {}
func (Scalar) node()    {}
