package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ehsanranjbar/flatkv/node"
)

// JSON decodes JSON documents into nodes keeping the order of object keys.
// Integral numbers become int64, or uint64 when beyond int64, and the rest float64.
type JSON struct{}

// Decode implements the Decoder interface.
func (JSON) Decode(bz []byte) (node.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(bz))
	dec.UseNumber()

	n, err := decodeJSON(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode json: unexpected data after top-level value")
	}
	return n, nil
}

func decodeJSON(dec *json.Decoder) (node.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch tok := tok.(type) {
	case json.Delim:
		switch tok {
		case '{':
			m := node.NewMapping()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				m.Set(kt.(string), v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			s := node.NewSequence()
			for dec.More() {
				v, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				s.Append(v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return s, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", tok)
		}
	case json.Number:
		if i, err := tok.Int64(); err == nil {
			return node.ScalarOf(i), nil
		}
		if u, err := strconv.ParseUint(tok.String(), 10, 64); err == nil {
			return node.ScalarOf(u), nil
		}
		f, err := tok.Float64()
		if err != nil {
			return nil, err
		}
		return node.ScalarOf(f), nil
	default:
		return node.ScalarOf(tok), nil
	}
}
