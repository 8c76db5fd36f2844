package shape

import (
	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
	"github.com/rowshape/rowshape/schema"
)

// Resolver walks query projections against an assembled schema graph.
type Resolver struct {
	graph    *schema.Graph
	inferrer TypeInferrer
}

// NewResolver creates a shape resolver. A nil inferrer falls back to
// LiteralInferrer.
func NewResolver(g *schema.Graph, inf TypeInferrer) *Resolver {
	if inf == nil {
		inf = LiteralInferrer{}
	}
	return &Resolver{graph: g, inferrer: inf}
}

// Resolve produces the ordered shape tree for a projection list. Resolution
// is best-effort: unknown references degrade to placeholder scalars and
// duplicate names drop the later column, with every finding reported in the
// diagnostic list.
func (r *Resolver) Resolve(items []ast.ProjectionItem) ([]ResultColumn, diag.List) {
	var diags diag.List
	cols := make([]ResultColumn, 0, len(items))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		col, itemDiags := r.resolveItem(item)
		diags = diags.Merge(itemDiags)
		if col == nil {
			continue
		}
		if seen[col.ColumnName()] {
			diags = diags.Add(diag.Errorf(diag.KindDuplicateResultColumnName, item.ItemSpan(),
				"duplicate result column name %q", col.ColumnName()))
			continue
		}
		seen[col.ColumnName()] = true
		cols = append(cols, col)
	}

	return cols, diags
}

func (r *Resolver) resolveItem(item ast.ProjectionItem) (ResultColumn, diag.List) {
	var diags diag.List

	switch it := item.(type) {
	case *ast.ExprItem:
		return r.resolveExpr(it)

	case *ast.StarItem:
		table := r.graph.Table(it.Table)
		if table == nil {
			diags = diags.Add(diag.Errorf(diag.KindUnknownTable, it.Span,
				"star projection over unknown table %q", it.Table))
			return nil, diags
		}
		return &NestedTable{
			Name:     it.Table,
			Table:    table,
			Nullable: it.OuterJoined,
			Span:     it.Span,
		}, diags

	case *ast.SubqueryItem:
		inner, innerDiags := r.Resolve(it.Items)
		diags = diags.Merge(innerDiags)
		return &NestedList{Name: it.Name, Columns: inner, Span: it.Span}, diags

	default:
		return nil, diags
	}
}

// resolveExpr types a projected expression. A bare column reference carries
// its column's type, nullability and converter; a constant literal is
// non-nullable unless it is NULL itself; anything computed is always
// nullable, the same policy applied to aggregate values.
func (r *Resolver) resolveExpr(it *ast.ExprItem) (ResultColumn, diag.List) {
	var diags diag.List

	if ref, ok := it.Expr.(*ast.ColumnRef); ok {
		name := it.Name
		if name == "" {
			name = ref.Column
		}
		col, lookupDiags := r.lookupColumn(ref)
		diags = diags.Merge(lookupDiags)
		if col == nil {
			// Placeholder so matching can still report independent errors.
			return &Scalar{Name: name, Type: ast.Integer, Nullable: true, Span: it.Span}, diags
		}
		return &Scalar{
			Name:     name,
			Type:     col.Type,
			Nullable: col.Nullable || ref.OuterJoined,
			HostType: col.HostType(),
			Span:     it.Span,
		}, diags
	}

	nullable := true
	if lit, ok := it.Expr.(*ast.Literal); ok && lit.Kind != ast.LitNull {
		nullable = false
	}
	return &Scalar{
		Name:     it.Name,
		Type:     r.inferrer.Infer(it.Expr),
		Nullable: nullable,
		Span:     it.Span,
	}, diags
}

func (r *Resolver) lookupColumn(ref *ast.ColumnRef) (*schema.Column, diag.List) {
	var diags diag.List

	if table := r.graph.Table(ref.Table); table != nil {
		if col := table.Column(ref.Column); col != nil {
			return col, diags
		}
		diags = diags.Add(diag.Errorf(diag.KindUnknownColumn, ref.Span,
			"unknown column %q.%q", ref.Table, ref.Column))
		return nil, diags
	}
	if view := r.graph.View(ref.Table); view != nil {
		if col := view.Column(ref.Column); col != nil {
			return col, diags
		}
		diags = diags.Add(diag.Errorf(diag.KindUnknownColumn, ref.Span,
			"unknown column %q.%q", ref.Table, ref.Column))
		return nil, diags
	}

	diags = diags.Add(diag.Errorf(diag.KindUnknownTable, ref.Span,
		"column reference against unknown table %q", ref.Table))
	return nil, diags
}
