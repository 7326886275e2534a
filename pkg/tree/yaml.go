package tree

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	mergeTag     = "!!merge"
	floatTag     = "!!float"
	timestampTag = "!!timestamp"
	dateLayout   = "2006-01-02"
)

// Decode parses a YAML document into a tree. An empty document decodes to an empty mapping.
func Decode(data []byte) (Value, error) {
	var doc yaml.Node
	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse yaml")
	}
	if doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
		return NewMapping(), nil
	}

	return fromNode(&doc)
}

// Encode renders a tree as a YAML document.
func Encode(v Value) ([]byte, error) {
	node, err := toNode(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	err = enc.Encode(node)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode yaml")
	}
	err = enc.Close()
	if err != nil {
		return nil, errors.Wrap(err, "unable to flush yaml encoder")
	}

	return buf.Bytes(), nil
}

func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return NewMapping(), nil
		}

		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		return mappingFromNode(n)
	case yaml.SequenceNode:
		seq := NewSequence()
		for _, item := range n.Content {
			v, err := fromNode(item)
			if err != nil {
				return nil, err
			}
			seq.Append(v)
		}

		return seq, nil
	case yaml.ScalarNode:
		return scalarFromNode(n)
	default:
		return nil, errors.Errorf("unsupported yaml node kind %d at line %d", n.Kind, n.Line)
	}
}

func mappingFromNode(n *yaml.Node) (*Mapping, error) {
	m := NewMapping()
	var merged []*Mapping
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		if isMergeKey(keyNode) {
			sources, err := mergeSources(valueNode)
			if err != nil {
				return nil, err
			}
			merged = append(merged, sources...)

			continue
		}

		v, err := fromNode(valueNode)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", keyNode.Value)
		}
		m.Set(keyNode.Value, v)
	}

	// Explicit keys take precedence over merged ones, earlier merge sources over later ones.
	for _, src := range merged {
		for _, key := range src.Keys() {
			if _, ok := m.Get(key); ok {
				continue
			}
			v, _ := src.Get(key)
			m.Set(key, v)
		}
	}

	return m, nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" && (n.Tag == "" || n.Tag == mergeTag)
}

func mergeSources(n *yaml.Node) ([]*Mapping, error) {
	if n.Kind == yaml.SequenceNode {
		var out []*Mapping
		for _, item := range n.Content {
			srcs, err := mergeSources(item)
			if err != nil {
				return nil, err
			}
			out = append(out, srcs...)
		}

		return out, nil
	}

	v, err := fromNode(n)
	if err != nil {
		return nil, err
	}
	m, ok := asMapping(v)
	if !ok {
		return nil, errors.Errorf("merge key at line %d must reference a mapping", n.Line)
	}

	return []*Mapping{m}, nil
}

func scalarFromNode(n *yaml.Node) (Value, error) {
	if n.ShortTag() == timestampTag {
		var t time.Time
		err := n.Decode(&t)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to decode timestamp at line %d", n.Line)
		}

		return Time(t), nil
	}

	var out any
	err := n.Decode(&out)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode scalar at line %d", n.Line)
	}

	switch v := out.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint64:
		return Uint(v), nil
	case float64:
		return Float(v), nil
	case time.Time:
		return Time(v), nil
	default:
		return String(fmt.Sprint(v)), nil
	}
}

func toNode(v Value) (*yaml.Node, error) {
	switch val := v.(type) {
	case *Mapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range val.keys {
			keyNode := &yaml.Node{}
			err := keyNode.Encode(key)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to encode key %q", key)
			}
			valueNode, err := toNode(val.values[key])
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", key)
			}
			n.Content = append(n.Content, keyNode, valueNode)
		}

		return n, nil
	case *Sequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range val.items {
			itemNode, err := toNode(item)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			n.Content = append(n.Content, itemNode)
		}

		return n, nil
	case Scalar:
		return scalarToNode(val)
	default:
		return nil, errors.Errorf("unsupported value %T", v)
	}
}

func scalarToNode(s Scalar) (*yaml.Node, error) {
	if t, ok := s.value.(time.Time); ok {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: timestampTag, Value: formatTimestamp(t)}, nil
	}

	n := &yaml.Node{}
	err := n.Encode(s.value)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode scalar")
	}

	// An integral float must keep a fractional part to read back as a float.
	if f, ok := s.value.(float64); ok && !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.ContainsAny(n.Value, ".eE") {
		n.Tag = floatTag
		n.Value += ".0"
	}

	return n, nil
}

// formatTimestamp writes midnight UTC as a plain date.
func formatTimestamp(t time.Time) string {
	if t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}

	return t.Format(time.RFC3339Nano)
}
