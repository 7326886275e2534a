package tree

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrEmptyPath  = errors.New("path must not be empty")
	ErrNotMapping = errors.New("node is not a mapping")
	ErrNilValue   = errors.New("value must not be nil")
)

// Path is an ordered sequence of keys locating a node inside nested mappings.
type Path []string

// ParsePath splits a dot separated path.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}

	return Path(strings.Split(s, "."))
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Equal reports whether both paths hold the same keys in the same order.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}

	return true
}

func isNil(v Value) bool {
	switch val := v.(type) {
	case nil:
		return true
	case *Mapping:
		return val == nil
	case *Sequence:
		return val == nil
	default:
		return false
	}
}

func asMapping(v Value) (*Mapping, bool) {
	m, ok := v.(*Mapping)
	if !ok || m == nil {
		return nil, false
	}

	return m, true
}

// Get walks path from root. It returns false if a key is missing or a node on the way is not a mapping.
// An empty path returns root itself.
func Get(root Value, path Path) (Value, bool) {
	node := root
	for _, key := range path {
		m, ok := asMapping(node)
		if !ok {
			return nil, false
		}
		node, ok = m.Get(key)
		if !ok {
			return nil, false
		}
	}
	if node == nil {
		return nil, false
	}

	return node, true
}

// Set assigns value at path, creating empty mappings for missing intermediate keys.
// It fails with ErrNotMapping, without modifying the tree, when an existing node on the way is not a mapping.
// A nil value fails with ErrNilValue, use Null for an explicit null.
func Set(root Value, path Path, value Value) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if isNil(value) {
		return errors.Wrapf(ErrNilValue, "unable to set %q", path.String())
	}

	node := root
	for i, key := range path {
		m, ok := asMapping(node)
		if !ok {
			return errors.Wrapf(ErrNotMapping, "unable to set %q at %q", path.String(), path[:i].String())
		}
		if i == len(path)-1 {
			m.Set(key, value)

			return nil
		}

		next, ok := m.Get(key)
		if !ok {
			// Everything below a created mapping is new, so no later conflict can leave a partial write behind.
			next = NewMapping()
			m.Set(key, next)
		}
		node = next
	}

	return nil
}

// Delete removes the node at path and returns it. It returns false, leaving the tree untouched,
// if any key on the way is missing or a node is not a mapping.
func Delete(root Value, path Path) (Value, bool) {
	if len(path) == 0 {
		return nil, false
	}

	parent, ok := Get(root, path[:len(path)-1])
	if !ok {
		return nil, false
	}
	m, ok := asMapping(parent)
	if !ok {
		return nil, false
	}

	return m.Delete(path[len(path)-1])
}
