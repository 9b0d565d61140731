package reflecthelpers

import (
	"encoding"
	"reflect"
	"strings"
)

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

// GetBaseType returns the base type of the given type by dereferencing pointers.
func GetBaseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// IsBytes reports whether the given type is a byte slice or a byte array.
func IsBytes(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() == reflect.Uint8
	default:
		return false
	}
}

// IsTextMarshaler reports whether the given type or a pointer to it implements encoding.TextMarshaler.
func IsTextMarshaler(t reflect.Type) bool {
	return t.Implements(textMarshalerType) ||
		(t.Kind() != reflect.Ptr && t.Kind() != reflect.Interface && reflect.PointerTo(t).Implements(textMarshalerType))
}

// Field is an exported struct field with its resolved name.
type Field struct {
	Name      string
	Index     []int
	OmitEmpty bool
}

// ExportedFields returns the exported fields of the given struct type in declaration order.
// Names follow the json tag when present, fields tagged "-" are skipped and
// untagged embedded structs are inlined.
func ExportedFields(t reflect.Type) []Field {
	var fields []Field
	collectFields(GetBaseType(t), nil, &fields)
	return fields
}

func collectFields(t reflect.Type, index []int, fields *[]Field) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, opts, tagged := parseTag(sf.Tag.Get("json"))
		if name == "-" && opts == "" {
			continue
		}

		idx := append(append([]int(nil), index...), i)
		if sf.Anonymous && name == "" {
			ft := GetBaseType(sf.Type)
			if ft.Kind() == reflect.Struct && !IsTextMarshaler(ft) {
				collectFields(ft, idx, fields)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		if !tagged || name == "" {
			name = sf.Name
		}
		*fields = append(*fields, Field{
			Name:      name,
			Index:     idx,
			OmitEmpty: strings.Contains(","+opts+",", ",omitempty,"),
		})
	}
}

func parseTag(tag string) (name, opts string, ok bool) {
	if tag == "" {
		return "", "", false
	}
	name, opts, _ = strings.Cut(tag, ",")
	return name, opts, true
}

// SafeFieldByIndex returns the field value of the given value by index.
// It returns false if a nil embedded pointer is on the way.
func SafeFieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for _, i := range index {
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v, true
}
