package rowtype

import "github.com/rowshape/rowshape/shape"

// Binding is the matcher's output: a tree mirroring the shape tree in which
// every node records the target field or parameter it satisfies. It carries
// enough information for a renderer to emit one field read per bound node.
type Binding struct {
	Target  Descriptor
	Columns []*BoundColumn
}

// BoundColumn binds one result column to its target.
type BoundColumn struct {
	Column shape.ResultColumn

	// Field is the target field or parameter name; empty for a single-value
	// wrapper, which has no field of its own.
	Field string

	// Index is the positional parameter index, or -1 for named and wrapper
	// bindings.
	Index int

	// Canonical marks a nested table accepted via the canonical row-type
	// fast path; Nested is nil in that case.
	Canonical bool

	// Nested is the recursive binding for nested table and nested list
	// columns.
	Nested *Binding
}

// Bound returns the bound column for a target field name.
func (b *Binding) Bound(field string) (*BoundColumn, bool) {
	for _, bc := range b.Columns {
		if bc.Field == field {
			return bc, true
		}
	}
	return nil, false
}
