// Package diff compares flattened results path by path.
package diff

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/ehsanranjbar/flatkv/flatten"
	"github.com/google/go-cmp/cmp"
	msgpack "github.com/vmihailenco/msgpack/v5"
)

// Op is the kind of a change.
type Op int

const (
	// Added marks a path present only in the second result.
	Added Op = iota + 1
	// Removed marks a path present only in the first result.
	Removed
	// Changed marks a path whose leaf differs between the results.
	Changed
)

// String implements the fmt.Stringer interface.
func (op Op) String() string {
	switch op {
	case Added:
		return "+"
	case Removed:
		return "-"
	case Changed:
		return "~"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Change is a single difference between two results.
type Change struct {
	Op   Op
	Path string
	Old  any
	New  any
}

// String implements the fmt.Stringer interface.
func (c Change) String() string {
	switch c.Op {
	case Added:
		return fmt.Sprintf("+ %s = %v", c.Path, c.New)
	case Removed:
		return fmt.Sprintf("- %s = %v", c.Path, c.Old)
	default:
		return fmt.Sprintf("~ %s = %v -> %v", c.Path, c.Old, c.New)
	}
}

var allowUnexported = cmp.Exporter(func(reflect.Type) bool { return true })

// Diff returns the changes that turn a into b.
// Removed and changed paths come first in the order of a, followed by added paths in the order of b.
func Diff(a, b *flatten.Result) []Change {
	var changes []Change
	for k, av := range a.All() {
		bv, ok := b.Get(k)
		switch {
		case !ok:
			changes = append(changes, Change{Op: Removed, Path: k, Old: av})
		case !leafEqual(av, bv):
			changes = append(changes, Change{Op: Changed, Path: k, Old: av, New: bv})
		}
	}
	for k, bv := range b.All() {
		if _, ok := a.Get(k); !ok {
			changes = append(changes, Change{Op: Added, Path: k, New: bv})
		}
	}
	return changes
}

// leafEqual compares leaves with go-cmp. Numbers of different types are equal when they hold the
// same value, since decoders differ in the numeric types they produce.
func leafEqual(a, b any) bool {
	if x, y := reflect.ValueOf(a), reflect.ValueOf(b); isNumber(x) && isNumber(y) && x.Type() != y.Type() {
		return numberEqual(x, y)
	}
	return cmp.Equal(a, b, allowUnexported)
}

func isNumber(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func numberEqual(x, y reflect.Value) bool {
	switch {
	case x.CanInt() && y.CanInt():
		return x.Int() == y.Int()
	case x.CanUint() && y.CanUint():
		return x.Uint() == y.Uint()
	case x.CanInt() && y.CanUint():
		return x.Int() >= 0 && uint64(x.Int()) == y.Uint()
	case x.CanUint() && y.CanInt():
		return numberEqual(y, x)
	default:
		return asFloat(x) == asFloat(y)
	}
}

func asFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

// Equal reports whether a and b hold the same leaves under the same paths, regardless of order.
func Equal(a, b *flatten.Result) bool {
	return a.Len() == b.Len() && len(Diff(a, b)) == 0
}

// Fingerprint hashes the paths and leaves of r in order.
// Leaves are hashed by their msgpack encoding, so results that differ only in order have
// different fingerprints.
func Fingerprint(r *flatten.Result) (uint64, error) {
	h := xxhash.New()
	enc := msgpack.GetEncoder()
	enc.Reset(h)
	defer msgpack.PutEncoder(enc)

	for k, v := range r.All() {
		if err := enc.EncodeString(k); err != nil {
			return 0, err
		}
		if err := enc.Encode(v); err != nil {
			return 0, fmt.Errorf("failed to encode %q: %w", k, err)
		}
	}
	return h.Sum64(), nil
}
