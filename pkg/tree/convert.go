package tree

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

// FromAny converts plain Go values (maps with string keys, slices and scalars) into a tree.
// Keys of Go maps have no order, so they are inserted sorted.
func FromAny(in any) (Value, error) {
	switch v := in.(type) {
	case Value:
		return v.Clone(), nil
	case nil:
		return Null(), nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint64:
		return Uint(v), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case time.Time:
		return Time(v), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			child, err := FromAny(v[k])
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", k)
			}
			m.Set(k, child)
		}

		return m, nil
	case []any:
		seq := NewSequence()
		for i, item := range v {
			child, err := FromAny(item)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			seq.Append(child)
		}

		return seq, nil
	case []string:
		seq := NewSequence()
		for _, item := range v {
			seq.Append(String(item))
		}

		return seq, nil
	default:
		return nil, errors.Errorf("unsupported type %T", in)
	}
}

// MustFromAny is FromAny for literals known to be valid. It panics on error.
func MustFromAny(in any) Value {
	v, err := FromAny(in)
	if err != nil {
		panic(err)
	}

	return v
}

// ToAny converts a tree back into plain Go values.
// Mappings become map[string]any, sequences []any and scalars their underlying value.
func ToAny(v Value) any {
	switch val := v.(type) {
	case *Mapping:
		out := make(map[string]any, val.Len())
		for _, k := range val.keys {
			out[k] = ToAny(val.values[k])
		}

		return out
	case *Sequence:
		out := make([]any, len(val.items))
		for i, item := range val.items {
			out[i] = ToAny(item)
		}

		return out
	case Scalar:
		return val.value
	default:
		return nil
	}
}
