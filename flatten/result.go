package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"strings"

	"github.com/ehsanranjbar/flatkv/internal/ordmap"
)

// Result is a flat mapping from joined paths to leaf values, ordered by the pre-order
// traversal that produced it.
type Result struct {
	m *ordmap.Map[string, any]
}

func newResult() *Result {
	return &Result{m: ordmap.New[string, any]()}
}

// Collect builds a Result from the given pairs. A repeated path keeps its first position
// and its last value.
func Collect(seq iter.Seq2[string, any]) *Result {
	r := newResult()
	for k, v := range seq {
		r.set(k, v)
	}
	return r
}

func (r *Result) set(key string, value any) bool {
	return r.m.Set(key, value)
}

// Get returns the leaf at the given path.
func (r *Result) Get(path string) (any, bool) {
	return r.m.Get(path)
}

// Len returns the number of leaves.
func (r *Result) Len() int {
	return r.m.Len()
}

// Keys returns the paths in order.
func (r *Result) Keys() []string {
	return r.m.Keys()
}

// All iterates over the paths and leaves in order.
func (r *Result) All() iter.Seq2[string, any] {
	return r.m.Iter()
}

// Map returns the result as a plain map.
func (r *Result) Map() map[string]any {
	return maps.Collect(r.m.Iter())
}

// MarshalJSON implements the json.Marshaler interface. Keys keep their order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for k, v := range r.m.Iter() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++

		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String implements fmt.Stringer.
func (r *Result) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	i := 0
	for k, v := range r.m.Iter() {
		if i > 0 {
			sb.WriteString(", ")
		}
		i++
		fmt.Fprintf(&sb, "%q: %v", k, v)
	}
	sb.WriteByte('}')
	return sb.String()
}
