package node_test

import (
	"testing"

	"github.com/ehsanranjbar/flatkv/node"
	"github.com/stretchr/testify/require"
)

func TestMapping(t *testing.T) {
	m := node.NewMapping(
		node.E("b", node.ScalarOf(1)),
		node.E("a", node.ScalarOf(2)),
		node.E("b", node.ScalarOf(3)),
	)
	require.Equal(t, 2, m.Len())

	var keys []string
	for k := range m.All() {
		keys = append(keys, k)
	}
	require.Equal(t, []string{"b", "a"}, keys)

	v, ok := m.Get("b")
	require.True(t, ok)
	require.Equal(t, node.ScalarOf(3), v)

	m.Delete("b")
	_, ok = m.Get("b")
	require.False(t, ok)
	require.Equal(t, 1, m.Len())
}

func TestMappingZeroValue(t *testing.T) {
	var nilMapping *node.Mapping
	require.Equal(t, 0, nilMapping.Len())
	_, ok := nilMapping.Get("a")
	require.False(t, ok)
	for range nilMapping.All() {
		t.Fatal("nil mapping yielded an entry")
	}
	nilMapping.Delete("a")

	m := &node.Mapping{}
	require.Equal(t, 0, m.Len())
	m.Delete("a")
	m.Set("a", node.ScalarOf(1))
	m.Set("b", node.ScalarOf(2))
	require.Equal(t, 2, m.Len())
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, node.ScalarOf(1), v)

	var nilSeq *node.Sequence
	require.Equal(t, 0, nilSeq.Len())
	_, ok = nilSeq.At(0)
	require.False(t, ok)
	var nilSet *node.Set
	require.Equal(t, 0, nilSet.Len())
	for range nilSet.All() {
		t.Fatal("nil set yielded an item")
	}
}

func TestSequence(t *testing.T) {
	s := node.NewSequence(node.ScalarOf("x"))
	s.Append(node.ScalarOf("y"), node.NewSequence())
	require.Equal(t, 3, s.Len())

	v, ok := s.At(1)
	require.True(t, ok)
	require.Equal(t, node.ScalarOf("y"), v)

	_, ok = s.At(3)
	require.False(t, ok)
	_, ok = s.At(-1)
	require.False(t, ok)
}

func TestSet(t *testing.T) {
	s := node.NewSet(
		node.ScalarOf(1),
		node.ScalarOf(2),
		node.ScalarOf(1),
		node.ScalarOf([]int{1}),
		node.ScalarOf([]int{1}),
	)
	require.Equal(t, 4, s.Len())

	var items []node.Node
	for _, it := range s.All() {
		items = append(items, it)
	}
	require.Equal(t, []node.Node{
		node.ScalarOf(1),
		node.ScalarOf(2),
		node.ScalarOf([]int{1}),
		node.ScalarOf([]int{1}),
	}, items)
}

func TestKind(t *testing.T) {
	require.Equal(t, node.ShapeMapping, node.Kind(node.NewMapping()))
	require.Equal(t, node.ShapeSequence, node.Kind(node.NewSequence()))
	require.Equal(t, node.ShapeSet, node.Kind(node.NewSet()))
	require.Equal(t, node.ShapeScalar, node.Kind(node.ScalarOf(1)))
	require.Equal(t, node.ShapeScalar, node.Kind(nil))
	require.Equal(t, "sequence", node.ShapeSequence.String())
}
