// Package shape resolves a query's projected output list into an ordered
// column tree: scalar leaves, nested single-row projections and nested list
// sub-queries.
package shape

import (
	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
	"github.com/rowshape/rowshape/schema"
)

// ResultColumn is one node of a query's shape tree. The variant set is
// closed; the matcher switches exhaustively over it. Names within one
// nesting level are unique; ordering matters for positional matching only.
type ResultColumn interface {
	resultColumn()
	ColumnName() string
}

// Scalar is a leaf column. HostType carries the public type of an applied
// converter when the column surfaces as a host type rather than its scalar
// storage type.
type Scalar struct {
	Name     string
	Type     ast.ScalarType
	Nullable bool
	HostType string
	Span     diag.Span
}

// NestedTable embeds a whole referenced table as a single-row sub-object.
// Nullable is set when the table sits on the non-preserved side of an outer
// join and may therefore be absent.
type NestedTable struct {
	Name     string
	Table    *schema.Table
	Nullable bool
	Span     diag.Span
}

// NestedList is a correlated sub-query producing a list of rows; Columns is
// the sub-query's own shape tree.
type NestedList struct {
	Name    string
	Columns []ResultColumn
	Span    diag.Span
}

func (*Scalar) resultColumn()      {}
func (*NestedTable) resultColumn() {}
func (*NestedList) resultColumn()  {}

func (c *Scalar) ColumnName() string      { return c.Name }
func (c *NestedTable) ColumnName() string { return c.Name }
func (c *NestedList) ColumnName() string  { return c.Name }

// OfTable flattens a table's full column set into scalar shape nodes, the
// form the matcher recurses into for nested single-row projections.
func OfTable(t *schema.Table) []ResultColumn {
	cols := make([]ResultColumn, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, &Scalar{
			Name:     c.Name,
			Type:     c.Type,
			Nullable: c.Nullable,
			HostType: c.HostType(),
			Span:     c.Span,
		})
	}
	return cols
}
