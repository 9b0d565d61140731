package qlutil

import (
	"time"

	qlvalue "github.com/araddon/qlbridge/value"
	"github.com/ehsanranjbar/flatkv/schema"
)

// IDKey is the identifier that resolves to the id of the wrapped value.
const IDKey = "_id"

// ContextWrapper exposes a value to qlbridge expressions through the qlbridge.ContextReader interface.
// Identifiers are resolved with a PathExtractor, except IDKey which resolves to the id.
type ContextWrapper[I, D any] struct {
	id        *I
	data      D
	extractor schema.PathExtractor[D]
	flatter   schema.Flatter[D]
}

// NewContextWrapper creates a new ContextWrapper. id may be nil for values that have none.
func NewContextWrapper[I, D any](
	id *I,
	data D,
	extractor schema.PathExtractor[D],
	flatter schema.Flatter[D],
) *ContextWrapper[I, D] {
	return &ContextWrapper[I, D]{
		id:        id,
		data:      data,
		extractor: extractor,
		flatter:   flatter,
	}
}

// Get implements the qlbridge.ContextReader interface.
func (c *ContextWrapper[I, D]) Get(key string) (qlvalue.Value, bool) {
	if key == IDKey && c.id != nil {
		return qlvalue.NewValue(*c.id), true
	}

	v, err := c.extractor.ExtractPath(c.data, key)
	if err != nil {
		return qlvalue.NewErrorValue(err), false
	}
	return qlvalue.NewValue(v), true
}

// Row implements the qlbridge.ContextReader interface.
func (c *ContextWrapper[I, D]) Row() map[string]qlvalue.Value {
	if c.flatter == nil {
		return nil
	}

	flat, err := c.flatter.Flatten(c.data)
	if err != nil {
		return nil
	}
	row := make(map[string]qlvalue.Value, len(flat)+1)
	for k, v := range flat {
		row[k] = qlvalue.NewValue(v)
	}
	if c.id != nil {
		row[IDKey] = qlvalue.NewValue(*c.id)
	}
	return row
}

// Ts implements the qlbridge.ContextReader interface.
// Values carry no timestamp.
func (c *ContextWrapper[I, D]) Ts() time.Time { return time.Time{} }
