// Package tree provides a typed, path-addressable representation of nested configuration documents.
//
// A Value is one of three variants: a Mapping (ordered string keys to values), a Sequence (ordered list of values)
// or a Scalar (string, boolean, number, timestamp or null). Get, Set and Delete walk a Path of keys through nested mappings and
// never treat a missing key or a non-mapping node as a runtime failure: Get and Delete report absence, Set reports
// ErrNotMapping when the existing shape conflicts with the path.
//
// Decode and Encode convert trees to and from YAML through yaml.Node, so the key order of the source document is
// kept when a document is written back.
package tree
