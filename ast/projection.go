package ast

import "github.com/rowshape/rowshape/diag"

// ProjectionItem is one entry of a query's projected output list. The set of
// variants is closed; the shape resolver switches exhaustively over it.
type ProjectionItem interface {
	projectionItem()
	ItemSpan() diag.Span
}

// ExprItem projects a single value expression. Name is the alias when one
// was written, otherwise the parser derives it (a bare column reference
// keeps its column name).
type ExprItem struct {
	Name string
	Expr Expr
	Span diag.Span
}

// StarItem projects a whole table ("t.*") from the query's FROM clause.
// OuterJoined marks the table as the non-preserved side of an outer join.
type StarItem struct {
	Table       string
	OuterJoined bool
	Span        diag.Span
}

// SubqueryItem projects a correlated sub-query producing a list of rows.
// Items is the sub-query's own projection list.
type SubqueryItem struct {
	Name  string
	Items []ProjectionItem
	Span  diag.Span
}

func (*ExprItem) projectionItem()     {}
func (*StarItem) projectionItem()     {}
func (*SubqueryItem) projectionItem() {}

func (i *ExprItem) ItemSpan() diag.Span     { return i.Span }
func (i *StarItem) ItemSpan() diag.Span     { return i.Span }
func (i *SubqueryItem) ItemSpan() diag.Span { return i.Span }

// Expr is a value expression inside a projection. Only the cases the shape
// resolver must distinguish are modeled; everything else is opaque to the
// analyzer and typed by the inference collaborator.
type Expr interface {
	expr()
	ExprSpan() diag.Span
}

// ColumnRef is a bare reference to a table column. OuterJoined marks the
// referenced table as the non-preserved side of an outer join.
type ColumnRef struct {
	Table       string
	Column      string
	OuterJoined bool
	Span        diag.Span
}

// LiteralKind classifies a literal expression.
type LiteralKind int

const (
	LitNull LiteralKind = iota
	LitInt
	LitFloat
	LitString
	LitBlob
	LitBool
)

// Literal is a constant expression.
type Literal struct {
	Kind  LiteralKind
	Value string
	Span  diag.Span
}

// Call is a function or aggregate invocation.
type Call struct {
	Fn   string
	Args []Expr
	Span diag.Span
}

// Binary is an infix operator expression.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
	Span  diag.Span
}

func (*ColumnRef) expr() {}
func (*Literal) expr()   {}
func (*Call) expr()      {}
func (*Binary) expr()    {}

func (e *ColumnRef) ExprSpan() diag.Span { return e.Span }
func (e *Literal) ExprSpan() diag.Span   { return e.Span }
func (e *Call) ExprSpan() diag.Span      { return e.Span }
func (e *Binary) ExprSpan() diag.Span    { return e.Span }
