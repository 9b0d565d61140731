package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/ehsanranjbar/flatkv/flatten"
	"github.com/ehsanranjbar/flatkv/node"
	msgpack "github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Msgpack decodes msgpack documents into nodes keeping the order of map keys.
// Scalars are decoded loosely: int64, uint64, float64, string, []byte, bool or nil.
type Msgpack struct{}

// Decode implements the Decoder interface.
func (Msgpack) Decode(bz []byte) (node.Node, error) {
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(bz))
	defer msgpack.PutDecoder(dec)

	n, err := decodeMsgpack(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode msgpack: %w", err)
	}
	if _, err := dec.PeekCode(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode msgpack: unexpected data after top-level value")
	}
	return n, nil
}

func decodeMsgpack(dec *msgpack.Decoder) (node.Node, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}

	switch {
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		m := node.NewMapping()
		for i := 0; i < n; i++ {
			k, err := dec.DecodeInterfaceLoose()
			if err != nil {
				return nil, err
			}
			v, err := decodeMsgpack(dec)
			if err != nil {
				return nil, err
			}
			m.Set(node.KeyText(reflect.ValueOf(&k).Elem()), v)
		}
		return m, nil
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		s := node.NewSequence()
		for i := 0; i < n; i++ {
			v, err := decodeMsgpack(dec)
			if err != nil {
				return nil, err
			}
			s.Append(v)
		}
		return s, nil
	default:
		v, err := dec.DecodeInterfaceLoose()
		if err != nil {
			return nil, err
		}
		return node.ScalarOf(v), nil
	}
}

// ResultCodec encodes flattened results as msgpack maps in result order.
type ResultCodec struct{}

// Encode implements the Encoder interface.
func (ResultCodec) Encode(r *flatten.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	defer msgpack.PutEncoder(enc)

	if err := enc.EncodeMapLen(r.Len()); err != nil {
		return nil, err
	}
	for k, v := range r.All() {
		if err := enc.EncodeString(k); err != nil {
			return nil, err
		}
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", k, err)
		}
	}
	return buf.Bytes(), nil
}

// Decode implements the Decoder interface.
func (ResultCodec) Decode(bz []byte) (*flatten.Result, error) {
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(bz))
	defer msgpack.PutDecoder(dec)

	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	type pair struct {
		k string
		v any
	}
	pairs := make([]pair, 0, max(n, 0))
	for i := 0; i < n; i++ {
		k, err := dec.DecodeString()
		if err != nil {
			return nil, fmt.Errorf("failed to decode result key: %w", err)
		}
		v, err := dec.DecodeInterfaceLoose()
		if err != nil {
			return nil, fmt.Errorf("failed to decode %q: %w", k, err)
		}
		pairs = append(pairs, pair{k: k, v: v})
	}

	return flatten.Collect(func(yield func(string, any) bool) {
		for _, p := range pairs {
			if !yield(p.k, p.v) {
				return
			}
		}
	}), nil
}

// ValueCodec encodes single leaf values as msgpack.
type ValueCodec struct{}

// Encode implements the Encoder interface.
func (ValueCodec) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode implements the Decoder interface.
func (ValueCodec) Decode(bz []byte) (any, error) {
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(bz))
	defer msgpack.PutDecoder(dec)

	return dec.DecodeInterfaceLoose()
}

var (
	_ Codec[*flatten.Result] = ResultCodec{}
	_ Codec[any]             = ValueCodec{}
	_ Decoder[node.Node]     = Msgpack{}
	_ Decoder[node.Node]     = JSON{}
	_ Decoder[node.Node]     = YAML{}
)
