package node

import (
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/ehsanranjbar/flatkv/utils/reflecthelpers"
)

// CyclicStructureError is returned when a structure contains itself.
type CyclicStructureError struct {
	// Path is the dot joined path of the container that refers back to one of its ancestors.
	Path string
}

// Error implements the error interface.
func (e *CyclicStructureError) Error() string {
	if e.Path == "" {
		return "cyclic structure at root"
	}
	return fmt.Sprintf("cyclic structure at %q", e.Path)
}

// From converts an arbitrary Go value into a Node.
//
// Maps become Mappings with keys rendered as text and sorted, since Go maps have no insertion order.
// map[K]struct{} becomes a Set. Slices and arrays become Sequences, structs become Mappings over
// their exported fields named by their json tags. Strings, byte slices and arrays, and
// encoding.TextMarshaler implementations are Scalars, as is everything else.
// Nodes are returned as is, except nil pointers to containers which become a nil Scalar.
func From(v any) (Node, error) {
	c := converter{visiting: make(map[visit]struct{})}
	return c.convert(reflect.ValueOf(v), nil)
}

// MustFrom is like From but panics if an error occurs.
func MustFrom(v any) Node {
	n, err := From(v)
	if err != nil {
		panic(err)
	}
	return n
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type converter struct {
	visiting map[visit]struct{}
}

var (
	nodeType  = reflect.TypeFor[Node]()
	emptyType = reflect.TypeFor[struct{}]()
)

func (c *converter) convert(rv reflect.Value, path []string) (Node, error) {
	if !rv.IsValid() {
		return Scalar{}, nil
	}
	t := rv.Type()
	if t.Implements(nodeType) && rv.CanInterface() {
		if (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil() {
			return Scalar{}, nil
		}
		return rv.Interface().(Node), nil
	}

	if reflecthelpers.IsBytes(t) || reflecthelpers.IsTextMarshaler(t) {
		if rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return Scalar{}, nil
			}
			return scalarOf(rv.Elem()), nil
		}
		return scalarOf(rv), nil
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Scalar{}, nil
		}
		if rv.Kind() == reflect.Interface {
			return c.convert(rv.Elem(), path)
		}
		leave, err := c.enter(rv, path)
		if err != nil {
			return nil, err
		}
		defer leave()
		return c.convert(rv.Elem(), path)

	case reflect.Map:
		if rv.IsNil() {
			if t.Elem() == emptyType {
				return NewSet(), nil
			}
			return NewMapping(), nil
		}
		leave, err := c.enter(rv, path)
		if err != nil {
			return nil, err
		}
		defer leave()
		if t.Elem() == emptyType {
			return c.convertSet(rv)
		}
		return c.convertMap(rv, path)

	case reflect.Slice:
		if rv.IsNil() {
			return NewSequence(), nil
		}
		leave, err := c.enter(rv, path)
		if err != nil {
			return nil, err
		}
		defer leave()
		return c.convertList(rv, path)

	case reflect.Array:
		return c.convertList(rv, path)

	case reflect.Struct:
		return c.convertStruct(rv, path)

	default:
		return scalarOf(rv), nil
	}
}

func (c *converter) enter(rv reflect.Value, path []string) (func(), error) {
	k := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		k.len = rv.Len()
	}
	if _, ok := c.visiting[k]; ok {
		return nil, &CyclicStructureError{Path: strings.Join(path, ".")}
	}
	c.visiting[k] = struct{}{}
	return func() { delete(c.visiting, k) }, nil
}

func (c *converter) convertMap(rv reflect.Value, path []string) (Node, error) {
	type kv struct {
		key   string
		value reflect.Value
	}
	entries := make([]kv, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, kv{key: KeyText(iter.Key()), value: iter.Value()})
	}
	slices.SortStableFunc(entries, func(a, b kv) int { return strings.Compare(a.key, b.key) })

	m := NewMapping()
	for _, e := range entries {
		child, err := c.convert(e.value, append(path, e.key))
		if err != nil {
			return nil, err
		}
		m.Set(e.key, child)
	}
	return m, nil
}

func (c *converter) convertSet(rv reflect.Value) (Node, error) {
	keys := rv.MapKeys()
	slices.SortStableFunc(keys, func(a, b reflect.Value) int { return strings.Compare(KeyText(a), KeyText(b)) })

	items := make([]Node, len(keys))
	for i, k := range keys {
		items[i] = scalarOf(k)
	}
	return NewSet(items...), nil
}

func (c *converter) convertList(rv reflect.Value, path []string) (Node, error) {
	s := &Sequence{}
	for i := 0; i < rv.Len(); i++ {
		child, err := c.convert(rv.Index(i), append(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		s.items = append(s.items, child)
	}
	return s, nil
}

func (c *converter) convertStruct(rv reflect.Value, path []string) (Node, error) {
	m := NewMapping()
	for _, f := range reflecthelpers.ExportedFields(rv.Type()) {
		fv, ok := reflecthelpers.SafeFieldByIndex(rv, f.Index)
		if !ok || (f.OmitEmpty && fv.IsZero()) {
			continue
		}
		child, err := c.convert(fv, append(path, f.Name))
		if err != nil {
			return nil, err
		}
		m.Set(f.Name, child)
	}
	return m, nil
}

func scalarOf(rv reflect.Value) Scalar {
	if !rv.CanInterface() {
		return Scalar{}
	}
	return Scalar{Value: rv.Interface()}
}

// KeyText renders a map key as text.
func KeyText(k reflect.Value) string {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "<nil>"
		}
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.Kind() == reflect.Slice && k.Type().Elem().Kind() == reflect.Uint8 {
		return string(k.Bytes())
	}
	if k.CanInterface() {
		switch kv := k.Interface().(type) {
		case encoding.TextMarshaler:
			if b, err := kv.MarshalText(); err == nil {
				return string(b)
			}
		case fmt.Stringer:
			return kv.String()
		}
	}

	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	}
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	return fmt.Sprint(k)
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}
