package schema

import (
	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
)

// View is an assembled view entity. Its columns follow the same model as
// table columns, but nullability is derived from the view's joins: every
// view column is nullable unless it passes a non-nullable column of the
// view's primary table straight through.
type View struct {
	Name        string
	RowTypeName string

	Columns []*Column
	byName  map[string]*Column

	// Referenced lists the tables the view selects from, primary first.
	Referenced []string
}

// Column returns the named view column or nil.
func (v *View) Column(name string) *Column {
	return v.byName[name]
}

// AssembleView resolves a view declaration against the already-assembled
// tables in g. Pass-through columns inherit scalar type, nullability and
// converter from their source column; a source on the non-preserved side of
// an outer join is forced nullable regardless.
func AssembleView(decl *ast.ViewDecl, g *Graph) (*View, diag.List) {
	var diags diag.List

	v := &View{
		Name:        decl.Name,
		RowTypeName: decl.RowTypeName,
		Referenced:  decl.Referenced,
		byName:      make(map[string]*Column, len(decl.Columns)),
	}
	if v.RowTypeName == "" {
		v.RowTypeName = RowTypeName(decl.Name)
	}

	primary := ""
	if len(decl.Referenced) > 0 {
		primary = decl.Referenced[0]
	}

	for _, vc := range decl.Columns {
		col, colDiags := resolveViewColumn(decl.Name, vc, primary, g)
		diags = diags.Merge(colDiags)
		if col == nil {
			continue
		}
		if _, dup := v.byName[col.Name]; dup {
			diags = diags.Add(diag.Errorf(diag.KindDuplicateColumn, vc.Span,
				"view %q declares column %q more than once", decl.Name, col.Name))
			continue
		}
		v.Columns = append(v.Columns, col)
		v.byName[col.Name] = col
	}

	return v, diags
}

func resolveViewColumn(viewName string, vc *ast.ViewColumnDecl, primary string, g *Graph) (*Column, diag.List) {
	var diags diag.List

	if src := vc.Source; src != nil {
		table := g.Table(src.Table)
		if table == nil {
			diags = diags.Add(diag.Errorf(diag.KindUnknownTable, vc.Span,
				"view %q selects from unknown table %q", viewName, src.Table))
			return nil, diags
		}
		source := table.Column(src.Column)
		if source == nil {
			diags = diags.Add(diag.Errorf(diag.KindUnknownColumn, vc.Span,
				"view %q selects unknown column %q.%q", viewName, src.Table, src.Column))
			return nil, diags
		}

		nullable := source.Nullable
		if src.OuterJoined || src.Table != primary {
			nullable = true
		}
		return &Column{
			Name:      vc.Name,
			Type:      source.Type,
			Nullable:  nullable,
			Converter: source.Converter,
			Span:      vc.Span,
		}, diags
	}

	// Computed columns never pass nullability through.
	return &Column{
		Name:     vc.Name,
		Type:     vc.Type,
		Nullable: true,
		Span:     vc.Span,
	}, diags
}
