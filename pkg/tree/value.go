package tree

import "time"

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindMapping Kind = iota
	KindSequence
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Value is a node of a configuration tree.
type Value interface {
	// Kind returns the variant of the value.
	Kind() Kind
	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() Value
}

// Mapping is an ordered set of string keys pointing to values.
// Keys keep their insertion order; overwriting a key keeps its position.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Value)}
}

// Kind implements Value.
func (m *Mapping) Kind() Kind { return KindMapping }

// Clone implements Value.
func (m *Mapping) Clone() Value {
	out := &Mapping{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]Value, len(m.values)),
	}
	copy(out.keys, m.keys)
	for k, v := range m.values {
		out.values[k] = v.Clone()
	}

	return out
}

// Len returns the number of keys.
func (m *Mapping) Len() int { return len(m.keys) }

// Keys returns the keys in order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)

	return keys
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	v, ok := m.values[key]

	return v, ok
}

// Set stores value under key.
func (m *Mapping) Set(key string, value Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key and returns its previous value.
func (m *Mapping) Delete(key string) (Value, bool) {
	v, ok := m.values[key]
	if !ok {
		return nil, false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)

			break
		}
	}

	return v, true
}

// Sequence is an ordered list of values.
type Sequence struct {
	items []Value
}

// NewSequence creates a sequence holding items.
func NewSequence(items ...Value) *Sequence {
	s := &Sequence{items: make([]Value, 0, len(items))}
	s.items = append(s.items, items...)

	return s
}

// Kind implements Value.
func (s *Sequence) Kind() Kind { return KindSequence }

// Clone implements Value.
func (s *Sequence) Clone() Value {
	out := &Sequence{items: make([]Value, len(s.items))}
	for i, item := range s.items {
		out.items[i] = item.Clone()
	}

	return out
}

// Len returns the number of items.
func (s *Sequence) Len() int { return len(s.items) }

// Index returns the item at position i.
func (s *Sequence) Index(i int) Value { return s.items[i] }

// Items returns a copy of the item slice.
func (s *Sequence) Items() []Value {
	items := make([]Value, len(s.items))
	copy(items, s.items)

	return items
}

// Append adds items at the end of the sequence.
func (s *Sequence) Append(items ...Value) {
	s.items = append(s.items, items...)
}

// Scalar is a leaf value: a string, a boolean, an integer, a float, a timestamp or null.
type Scalar struct {
	value any
}

// String creates a string scalar.
func String(s string) Scalar { return Scalar{value: s} }

// Bool creates a boolean scalar.
func Bool(b bool) Scalar { return Scalar{value: b} }

// Int creates an integer scalar.
func Int(i int64) Scalar { return Scalar{value: i} }

// Uint creates an integer scalar for values beyond the int64 range.
func Uint(u uint64) Scalar { return Scalar{value: u} }

// Float creates a floating point scalar.
func Float(f float64) Scalar { return Scalar{value: f} }

// Time creates a timestamp scalar.
func Time(t time.Time) Scalar { return Scalar{value: t} }

// Null creates a null scalar.
func Null() Scalar { return Scalar{} }

// Kind implements Value.
func (s Scalar) Kind() Kind { return KindScalar }

// Clone implements Value.
func (s Scalar) Clone() Value { return s }

// Interface returns the underlying Go value: string, bool, int64, uint64, float64, time.Time or nil.
func (s Scalar) Interface() any { return s.value }

// IsNull reports whether the scalar is null.
func (s Scalar) IsNull() bool { return s.value == nil }

// AsList wraps v into a single-element sequence unless it already is a sequence.
func AsList(v Value) *Sequence {
	if seq, ok := v.(*Sequence); ok {
		return seq
	}

	return NewSequence(v)
}
