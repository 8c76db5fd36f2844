// Package schema resolves parsed declarations into the analyzer's schema
// model: columns with derived semantics, assembled tables and views, and the
// per-file graph that ties them together.
package schema

import (
	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
)

// Constraint is a column- or table-owned constraint. The variant set is
// closed; consumers switch exhaustively over it.
type Constraint interface {
	constraint()
}

// PrimaryKey marks a column as (part of) the table's primary key.
type PrimaryKey struct {
	AutoIncrement bool
}

// Unique is a uniqueness constraint. Columns is empty for a column-local
// constraint; a table-wide unique set lists its member columns and is owned
// by the table.
type Unique struct {
	Columns []string
}

// ForeignKey is a structural reference to another resolved column.
type ForeignKey struct {
	Table    string
	Column   string
	OnUpdate ast.RefAction
	OnDelete ast.RefAction
}

// Check is a check constraint expression.
type Check struct {
	Expr string
}

// Default is a column default. Generator names a host-side value generator
// for client-computed defaults; otherwise Value is an engine-evaluated
// constant expression.
type Default struct {
	Value     string
	Generator string
}

func (PrimaryKey) constraint() {}
func (Unique) constraint()     {}
func (ForeignKey) constraint() {}
func (Check) constraint()      {}
func (Default) constraint()    {}

// ConverterForm tells how a column's converter came to be applied.
type ConverterForm int

const (
	// ConverterCustom is a caller-supplied converter.
	ConverterCustom ConverterForm = iota
	// ConverterEnumIndex maps an integer column onto enum member indexes.
	ConverterEnumIndex
	// ConverterEnumName maps a text column onto enum member names.
	ConverterEnumName
)

// Converter describes the type conversion applied to a column: the scalar
// type stored in the database and the host type the column surfaces as.
type Converter struct {
	Form     ConverterForm
	SQLType  ast.ScalarType
	HostType string
	Enum     string // enum name for the enum-backed forms
}

// Column is a fully resolved column. Once resolved it is immutable; derived
// table facts (primary key set, insert requirements) live on Table.
type Column struct {
	Name     string
	JSONName string // serialization name override; empty means Name
	Type     ast.ScalarType
	Nullable bool

	// Constraints holds the default-derived constraints, in declaration
	// order. When HasCustomConstraint is set this list is empty: the raw
	// string replaces every derived constraint, and nullability has been
	// re-derived from its text.
	Constraints         []Constraint
	CustomConstraint    string
	HasCustomConstraint bool

	Converter *Converter

	Span diag.Span
}

// ExternalName returns the serialization name for the column.
func (c *Column) ExternalName() string {
	if c.JSONName != "" {
		return c.JSONName
	}
	return c.Name
}

// IsPrimaryKey reports whether the column carries a column-level primary key
// constraint.
func (c *Column) IsPrimaryKey() bool {
	for _, con := range c.Constraints {
		if _, ok := con.(PrimaryKey); ok {
			return true
		}
	}
	return false
}

// IsAutoIncrement reports whether the column's primary key constraint is
// auto-incrementing.
func (c *Column) IsAutoIncrement() bool {
	for _, con := range c.Constraints {
		if pk, ok := con.(PrimaryKey); ok {
			return pk.AutoIncrement
		}
	}
	return false
}

// HasDefault reports whether the column has any default, engine-evaluated or
// client-computed.
func (c *Column) HasDefault() bool {
	for _, con := range c.Constraints {
		if _, ok := con.(Default); ok {
			return true
		}
	}
	return false
}

// DefaultConstraint returns the column's default constraint, if any.
func (c *Column) DefaultConstraint() (Default, bool) {
	for _, con := range c.Constraints {
		if d, ok := con.(Default); ok {
			return d, true
		}
	}
	return Default{}, false
}

// ForeignKeyConstraint returns the column's structural foreign key, if any.
// Columns resolved from a custom-constraint override never have one: their
// references are purely textual.
func (c *Column) ForeignKeyConstraint() (ForeignKey, bool) {
	for _, con := range c.Constraints {
		if fk, ok := con.(ForeignKey); ok {
			return fk, true
		}
	}
	return ForeignKey{}, false
}

// HostType returns the host type the column surfaces as when a converter is
// applied, or "" for plain scalar columns.
func (c *Column) HostType() string {
	if c.Converter == nil {
		return ""
	}
	return c.Converter.HostType
}
