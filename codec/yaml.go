package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ehsanranjbar/flatkv/node"
	"gopkg.in/yaml.v3"
)

// ErrExcessiveAliasing is returned for YAML documents whose aliases expand to far more nodes than
// the document itself holds.
var ErrExcessiveAliasing = errors.New("yaml document contains excessive aliasing")

// YAML decodes YAML documents into nodes keeping the order of mapping keys.
// Aliases are expanded; an alias that refers to one of its own ancestors is a cyclic structure,
// and expansions that dwarf the document fail with ErrExcessiveAliasing.
// Only the first document of a stream is decoded.
type YAML struct{}

// Decode implements the Decoder interface.
func (YAML) Decode(bz []byte) (node.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(bz, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}

	d := yamlDecoder{ancestors: make(map[*yaml.Node]struct{})}
	return d.decode(&doc, nil)
}

type yamlDecoder struct {
	ancestors map[*yaml.Node]struct{}

	decodeCount int
	aliasCount  int
	aliasDepth  int
}

// allowedAliasRatio is the share of decoded nodes that may come from alias expansion,
// shrinking as documents grow. The thresholds are those yaml.v3 applies when decoding into Go values.
func allowedAliasRatio(decodeCount int) float64 {
	switch {
	case decodeCount <= 400000:
		return 0.99
	case decodeCount >= 4000000:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decodeCount-400000)/3600000)
	}
}

func (d *yamlDecoder) decode(n *yaml.Node, path []string) (node.Node, error) {
	d.decodeCount++
	if d.aliasDepth > 0 {
		d.aliasCount++
	}
	if d.aliasCount > 100 && d.decodeCount > 1000 &&
		float64(d.aliasCount)/float64(d.decodeCount) > allowedAliasRatio(d.decodeCount) {
		return nil, ErrExcessiveAliasing
	}

	switch n.Kind {
	case 0:
		return node.Scalar{}, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return node.Scalar{}, nil
		}
		return d.decode(n.Content[0], path)
	case yaml.AliasNode:
		if _, ok := d.ancestors[n.Alias]; ok {
			return nil, &node.CyclicStructureError{Path: strings.Join(path, ".")}
		}
		d.aliasDepth++
		defer func() { d.aliasDepth-- }()
		return d.decode(n.Alias, path)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode scalar at line %d: %w", n.Line, err)
		}
		return node.ScalarOf(v), nil
	}

	d.ancestors[n] = struct{}{}
	defer delete(d.ancestors, n)

	switch n.Kind {
	case yaml.MappingNode:
		m := node.NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := yamlKey(n.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := d.decode(n.Content[i+1], append(path, key))
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		return m, nil
	case yaml.SequenceNode:
		s := node.NewSequence()
		for i, c := range n.Content {
			v, err := d.decode(c, append(path, fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			s.Append(v)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported yaml node kind %d at line %d", n.Kind, n.Line)
	}
}

func yamlKey(k *yaml.Node) (string, error) {
	if k.Kind == yaml.AliasNode && k.Alias != nil {
		k = k.Alias
	}
	if k.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("unsupported non-scalar mapping key at line %d", k.Line)
	}
	return k.Value, nil
}
