package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ehsanranjbar/flatkv/node"
)

// PathExtractor is an interface for extracting a value with the given path from a given value.
type PathExtractor[T any] interface {
	ExtractPath(t T, path string) (any, error)
}

// NodePathExtractor is a PathExtractor that resolves joined paths inside a node tree.
type NodePathExtractor struct {
	sep string
}

// NewNodePathExtractor creates a new NodePathExtractor for paths joined with sep.
func NewNodePathExtractor(sep string) NodePathExtractor {
	return NodePathExtractor{sep: sep}
}

// ExtractPath implements the PathExtractor interface.
func (pe NodePathExtractor) ExtractPath(n node.Node, path string) (any, error) {
	return ExtractPath(n, path, pe.sep)
}

// ExtractPath returns the leaf that flattening n with sep would put under path.
// When several leaves share a path the last one in traversal order wins.
func ExtractPath(n node.Node, path, sep string) (any, error) {
	x := extraction{
		path:      path,
		sep:       sep,
		ancestors: make(map[node.Node]struct{}),
	}
	x.walk(n, "")
	if !x.found {
		return nil, fmt.Errorf("path %q not found", path)
	}
	return x.value, nil
}

type extraction struct {
	path      string
	sep       string
	ancestors map[node.Node]struct{}
	found     bool
	value     any
}

func (x *extraction) walk(n node.Node, prefix string) {
	switch n := n.(type) {
	case *node.Mapping:
		x.enter(n, func() {
			for k, v := range n.All() {
				x.descend(v, prefix, k)
			}
		})
	case *node.Sequence:
		x.enter(n, func() {
			for i, v := range n.All() {
				x.descend(v, prefix, strconv.Itoa(i))
			}
		})
	case *node.Set:
		x.enter(n, func() {
			for i, v := range n.All() {
				x.descend(v, prefix, strconv.Itoa(i))
			}
		})
	case node.Scalar:
		x.leaf(prefix, n.Value)
	case nil:
		x.leaf(prefix, nil)
	}
}

func (x *extraction) enter(n node.Node, f func()) {
	if _, ok := x.ancestors[n]; ok {
		return
	}
	x.ancestors[n] = struct{}{}
	defer delete(x.ancestors, n)
	f()
}

func (x *extraction) descend(child node.Node, prefix, seg string) {
	p := seg
	if prefix != "" {
		p = prefix + x.sep + seg
	}
	if p == x.path || p == "" || strings.HasPrefix(x.path, p+x.sep) {
		x.walk(child, p)
	}
}

func (x *extraction) leaf(prefix string, v any) {
	if prefix == x.path {
		x.found, x.value = true, v
	}
}
