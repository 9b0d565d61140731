package diff_test

import (
	"testing"

	"github.com/ehsanranjbar/flatkv/diff"
	"github.com/ehsanranjbar/flatkv/flatten"
	"github.com/ehsanranjbar/flatkv/node"
	"github.com/stretchr/testify/require"
)

func mustFlatten(t *testing.T, n node.Node) *flatten.Result {
	t.Helper()
	r, err := flatten.FlattenNode(n)
	require.NoError(t, err)
	return r
}

func TestDiff(t *testing.T) {
	a := mustFlatten(t, node.NewMapping(
		node.E("name", node.ScalarOf("svc")),
		node.E("port", node.ScalarOf(80)),
		node.E("tags", node.NewSequence(node.ScalarOf("a"), node.ScalarOf("b"))),
	))
	b := mustFlatten(t, node.NewMapping(
		node.E("env", node.ScalarOf("prod")),
		node.E("port", node.ScalarOf(8080)),
		node.E("name", node.ScalarOf("svc")),
		node.E("tags", node.NewSequence(node.ScalarOf("a"))),
	))

	changes := diff.Diff(a, b)
	require.Equal(t, []diff.Change{
		{Op: diff.Changed, Path: "port", Old: 80, New: 8080},
		{Op: diff.Removed, Path: "tags.1", Old: "b"},
		{Op: diff.Added, Path: "env", New: "prod"},
	}, changes)

	require.Equal(t, "~ port = 80 -> 8080", changes[0].String())
	require.Equal(t, "- tags.1 = b", changes[1].String())
	require.Equal(t, "+ env = prod", changes[2].String())

	require.Empty(t, diff.Diff(a, a))
}

func TestDiffComparesStructs(t *testing.T) {
	type opaque struct{ v int }

	a := flatten.Collect(func(yield func(string, any) bool) { yield("x", opaque{v: 1}) })
	b := flatten.Collect(func(yield func(string, any) bool) { yield("x", opaque{v: 2}) })
	c := flatten.Collect(func(yield func(string, any) bool) { yield("x", opaque{v: 1}) })

	require.Len(t, diff.Diff(a, b), 1)
	require.True(t, diff.Equal(a, c))
}

func TestDiffNumbers(t *testing.T) {
	tests := []struct {
		a, b  any
		equal bool
	}{
		{a: int64(80), b: 80, equal: true},
		{a: uint64(80), b: int8(80), equal: true},
		{a: int64(-1), b: uint64(1<<64 - 1), equal: false},
		{a: 2.0, b: int64(2), equal: true},
		{a: float32(2.5), b: 2.5, equal: true},
		{a: int64(80), b: "80", equal: false},
	}

	for _, tt := range tests {
		a := flatten.Collect(func(yield func(string, any) bool) { yield("n", tt.a) })
		b := flatten.Collect(func(yield func(string, any) bool) { yield("n", tt.b) })
		require.Equal(t, tt.equal, diff.Equal(a, b), "%T(%v) vs %T(%v)", tt.a, tt.a, tt.b, tt.b)
	}
}

func TestEqualIgnoresOrder(t *testing.T) {
	a := mustFlatten(t, node.NewMapping(node.E("x", node.ScalarOf(1)), node.E("y", node.ScalarOf(2))))
	b := mustFlatten(t, node.NewMapping(node.E("y", node.ScalarOf(2)), node.E("x", node.ScalarOf(1))))
	c := mustFlatten(t, node.NewMapping(node.E("x", node.ScalarOf(1))))

	require.True(t, diff.Equal(a, b))
	require.False(t, diff.Equal(a, c))
	require.False(t, diff.Equal(c, a))
}

func TestFingerprint(t *testing.T) {
	a := mustFlatten(t, node.NewMapping(node.E("x", node.ScalarOf(1)), node.E("y", node.ScalarOf("s"))))
	b := mustFlatten(t, node.NewMapping(node.E("x", node.ScalarOf(1)), node.E("y", node.ScalarOf("s"))))
	c := mustFlatten(t, node.NewMapping(node.E("y", node.ScalarOf("s")), node.E("x", node.ScalarOf(1))))

	fa, err := diff.Fingerprint(a)
	require.NoError(t, err)
	fb, err := diff.Fingerprint(b)
	require.NoError(t, err)
	fc, err := diff.Fingerprint(c)
	require.NoError(t, err)

	require.Equal(t, fa, fb)
	require.NotEqual(t, fa, fc)
}
