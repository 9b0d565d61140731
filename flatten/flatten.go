// Package flatten turns nested structures into single level mappings from joined paths to leaves.
//
// Containers are walked depth first in pre-order. Every leaf ends up under the path of mapping keys
// and sequence or set indices that leads to it, joined by a separator:
//
//	flatten.Flatten(map[string]any{"a": []any{1, map[string]any{"b": 2}}})
//	// a.0 -> 1
//	// a.1.b -> 2
//
// Empty containers contribute nothing and a bare scalar is returned under the empty key.
package flatten

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ehsanranjbar/flatkv/node"
	"github.com/ehsanranjbar/flatkv/schema"
)

var (
	// ErrEmptySeparator is returned when the separator is empty.
	ErrEmptySeparator = errors.New("empty separator")
	// ErrMaxDepthExceeded is returned when containers are nested deeper than the configured limit.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
)

// Flatten flattens v. Values that are not already a node.Node are converted with node.From.
func Flatten(v any, opts ...Option) (*Result, error) {
	n, err := node.From(v)
	if err != nil {
		return nil, err
	}

	return FlattenNode(n, opts...)
}

// FlattenNode flattens the given node.
func FlattenNode(n node.Node, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)
	if cfg.sep == "" {
		return nil, ErrEmptySeparator
	}

	w := &walker{
		cfg:       cfg,
		res:       newResult(),
		ancestors: make(map[node.Node]struct{}),
	}
	if err := w.walk(n, "", 0); err != nil {
		return nil, err
	}
	return w.res, nil
}

type walker struct {
	cfg       *config
	res       *Result
	ancestors map[node.Node]struct{}
}

func (w *walker) walk(n node.Node, prefix string, depth int) error {
	switch n := n.(type) {
	case *node.Mapping:
		if n == nil {
			w.emit(prefix, nil)
			return nil
		}
		return w.container(n, prefix, depth, func() error {
			for k, v := range n.All() {
				if err := w.walk(v, w.join(prefix, k), depth+1); err != nil {
					return err
				}
			}
			return nil
		})
	case *node.Sequence:
		if n == nil {
			w.emit(prefix, nil)
			return nil
		}
		return w.container(n, prefix, depth, func() error {
			for i, v := range n.All() {
				if err := w.walk(v, w.join(prefix, strconv.Itoa(i)), depth+1); err != nil {
					return err
				}
			}
			return nil
		})
	case *node.Set:
		if n == nil {
			w.emit(prefix, nil)
			return nil
		}
		return w.container(n, prefix, depth, func() error {
			for i, v := range n.All() {
				if err := w.walk(v, w.join(prefix, strconv.Itoa(i)), depth+1); err != nil {
					return err
				}
			}
			return nil
		})
	case node.Scalar:
		w.emit(prefix, n.Value)
	case nil:
		w.emit(prefix, nil)
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
	return nil
}

func (w *walker) container(n node.Node, prefix string, depth int, children func() error) error {
	if w.cfg.maxDepth > 0 && depth >= w.cfg.maxDepth {
		return fmt.Errorf("%w at %q", ErrMaxDepthExceeded, prefix)
	}
	if _, ok := w.ancestors[n]; ok {
		return &node.CyclicStructureError{Path: prefix}
	}

	w.ancestors[n] = struct{}{}
	defer delete(w.ancestors, n)
	return children()
}

func (w *walker) emit(key string, value any) {
	if w.res.set(key, value) {
		w.cfg.logger.V(1).Info("Overwriting flattened key", "key", key)
	}
}

func (w *walker) join(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + w.cfg.sep + seg
}

// Flatter flattens values of type T into plain maps.
type Flatter[T any] struct {
	opts []Option
}

var _ schema.Flatter[any] = Flatter[any]{}

// For creates a Flatter for T with the given options.
func For[T any](opts ...Option) Flatter[T] {
	return Flatter[T]{opts: opts}
}

// Flatten implements the schema.Flatter interface.
func (f Flatter[T]) Flatten(t T) (map[string]any, error) {
	r, err := Flatten(t, f.opts...)
	if err != nil {
		return nil, err
	}
	return r.Map(), nil
}
