// Package ast defines the parsed input handed to the analyzer: table, view
// and query declarations with source spans. Parsing raw text is the job of
// an external grammar collaborator; nothing in this module tokenizes SQL.
package ast

import "github.com/rowshape/rowshape/diag"

// ScalarType enumerates the column types the analyzer reasons about. The
// parser rejects anything outside this set before the analyzer runs.
type ScalarType int

const (
	Integer ScalarType = iota
	BigInt
	Real
	Text
	Blob
	Boolean
	DateTime
)

var scalarNames = map[ScalarType]string{
	Integer:  "integer",
	BigInt:   "bigint",
	Real:     "real",
	Text:     "text",
	Blob:     "blob",
	Boolean:  "boolean",
	DateTime: "datetime",
}

func (t ScalarType) String() string {
	if name, ok := scalarNames[t]; ok {
		return name
	}
	return "unknown"
}

// RefAction is the declared ON UPDATE / ON DELETE behavior of a foreign key.
type RefAction int

const (
	NoAction RefAction = iota
	Restrict
	SetNull
	SetDefault
	Cascade
)

// File is one parsed source file: every declaration the analyzer needs, in
// declaration order. Tables referenced by other declarations must appear
// before their dependents; the driver resolves cycles before handing a File
// to the analyzer.
type File struct {
	Name    string
	Tables  []*TableDecl
	Views   []*ViewDecl
	Queries []*QueryDecl
}

// TableDecl is a parsed table declaration.
type TableDecl struct {
	Name        string
	RowTypeName string // optional override for the generated row type name
	Columns     []*ColumnDecl
	PrimaryKey  *KeySpec   // explicit table-level primary key, if declared
	UniqueSets  [][]string // table-level unique column sets
	Span        diag.Span
}

// KeySpec is a declared key column set. Literal is false when the
// declaration was a computed getter rather than a plain set of column names;
// the assembler rejects those.
type KeySpec struct {
	Columns []string
	Literal bool
	Span    diag.Span
}

// ColumnDecl is a parsed column declaration inside a table.
type ColumnDecl struct {
	Name     string
	Type     ScalarType
	Nullable bool
	JSONKey  string // serialization name override, independent of Name

	// CustomConstraint, when non-nil, is a raw constraint string that
	// replaces every default-derived constraint including NOT NULL.
	CustomConstraint *string

	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool
	Default       *DefaultSpec
	References    *ReferenceSpec
	Checks        []CheckSpec

	// Enum mapping forms. A column may declare the index form, the name
	// form, or (erroneously) both; each carries its own span so the
	// resolver can report them independently.
	EnumIndex *EnumSpec
	EnumName  *EnumSpec

	// Converter is a caller-supplied type converter. Incompatible with an
	// enum mapping; the resolver keeps the enum converter and warns.
	Converter *ConverterSpec

	Span diag.Span
}

// DefaultSpec is a declared column default. Generator names a host-side
// value generator (client-computed default); when empty the default is the
// engine-evaluated Value expression.
type DefaultSpec struct {
	Value     string
	Generator string
	Span      diag.Span
}

// ReferenceSpec is a declared foreign key target.
type ReferenceSpec struct {
	Table    string
	Column   string
	OnUpdate RefAction
	OnDelete RefAction
	Span     diag.Span
}

// CheckSpec is a declared check constraint expression.
type CheckSpec struct {
	Expr string
	Span diag.Span
}

// EnumSpec names a host enumeration a column maps onto.
type EnumSpec struct {
	Enum string
	Span diag.Span
}

// ConverterSpec is a caller-supplied converter declaration: the host type
// the column surfaces as, and the scalar type stored in the database.
type ConverterSpec struct {
	HostType string
	SQLType  ScalarType
	Span     diag.Span
}

// ViewDecl is a parsed view declaration. Columns either pass a source table
// column through or compute an expression.
type ViewDecl struct {
	Name        string
	RowTypeName string
	Columns     []*ViewColumnDecl
	// Referenced lists the tables the view selects from, primary table
	// first. Columns sourced from any other entry sit on the non-preserved
	// side of a join for nullability purposes unless marked otherwise.
	Referenced []string
	Span       diag.Span
}

// ViewColumnDecl is one projected column of a view.
type ViewColumnDecl struct {
	Name string
	// Source is set for pass-through columns.
	Source *SourceRef
	// Expr and Type describe a computed column; such columns are always
	// nullable.
	Expr Expr
	Type ScalarType
	Span diag.Span
}

// SourceRef points at the table column a view column passes through.
// OuterJoined marks the source table as the non-preserved side of an outer
// join, which forces the view column nullable.
type SourceRef struct {
	Table       string
	Column      string
	OuterJoined bool
}

// QueryDecl is a parsed hand-written query: just its projected output list.
// The analyzer does not need the rest of the statement.
type QueryDecl struct {
	Name  string
	Items []ProjectionItem
	Span  diag.Span
}
