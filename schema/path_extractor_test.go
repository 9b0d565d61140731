package schema_test

import (
	"testing"

	"github.com/ehsanranjbar/flatkv/node"
	"github.com/ehsanranjbar/flatkv/schema"
	"github.com/stretchr/testify/require"
)

func TestExtractPath(t *testing.T) {
	doc := node.NewMapping(
		node.E("foo", node.ScalarOf("bar")),
		node.E("nested", node.NewMapping(
			node.E("list", node.NewSequence(node.ScalarOf(1), node.NewMapping(node.E("x", node.ScalarOf(2))))),
		)),
		node.E("a.b", node.ScalarOf("dotted")),
		node.E("tags", node.NewSet(node.ScalarOf("t"))),
		node.E("", node.NewMapping(node.E("inner", node.ScalarOf("root-level")))),
		node.E("empty", node.NewSequence()),
	)

	tests := []struct {
		name    string
		path    string
		sep     string
		want    any
		wantErr bool
	}{
		{name: "Simple key", path: "foo", sep: ".", want: "bar"},
		{name: "Nested index", path: "nested.list.0", sep: ".", want: 1},
		{name: "Mapping in sequence", path: "nested.list.1.x", sep: ".", want: 2},
		{name: "Key containing separator", path: "a.b", sep: ".", want: "dotted"},
		{name: "Set member", path: "tags.0", sep: ".", want: "t"},
		{name: "Empty key joins without separator", path: "inner", sep: ".", want: "root-level"},
		{name: "Custom separator", path: "nested/list/1/x", sep: "/", want: 2},
		{name: "Container is not a leaf", path: "nested", sep: ".", wantErr: true},
		{name: "Empty container", path: "empty", sep: ".", wantErr: true},
		{name: "Out of range", path: "nested.list.2", sep: ".", wantErr: true},
		{name: "Missing key", path: "baz", sep: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schema.NewNodePathExtractor(tt.sep).ExtractPath(doc, tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPathScalarRoot(t *testing.T) {
	got, err := schema.ExtractPath(node.ScalarOf(42), "", ".")
	require.NoError(t, err)
	require.Equal(t, 42, got)

	_, err = schema.ExtractPath(node.ScalarOf(42), "x", ".")
	require.Error(t, err)
}

func TestExtractPathCyclic(t *testing.T) {
	m := node.NewMapping(node.E("a", node.ScalarOf(1)))
	m.Set("", m)

	got, err := schema.ExtractPath(m, "a", ".")
	require.NoError(t, err)
	require.Equal(t, 1, got)
}
