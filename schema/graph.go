package schema

import (
	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
)

// Graph is the resolved schema of one file: tables and views keyed by their
// schema-qualified names. It is built once per file and read-only afterwards;
// cross-references are resolved by name, never by pointer aliasing.
type Graph struct {
	tables map[string]*Table
	views  map[string]*View
	order  []string
}

// NewGraph creates an empty schema graph.
func NewGraph() *Graph {
	return &Graph{
		tables: make(map[string]*Table),
		views:  make(map[string]*View),
	}
}

// Table returns the named table or nil.
func (g *Graph) Table(name string) *Table {
	if g == nil {
		return nil
	}
	return g.tables[name]
}

// View returns the named view or nil.
func (g *Graph) View(name string) *View {
	if g == nil {
		return nil
	}
	return g.views[name]
}

// Names returns every entity name in declaration order.
func (g *Graph) Names() []string {
	return g.order
}

// BuildGraph resolves a file's declarations into a schema graph in two
// passes: first every table and view name is registered as a placeholder,
// then columns and references are resolved against the complete name set.
// The driver guarantees declarations arrive acyclic and in dependency order;
// the graph only validates that references land on registered names.
func BuildGraph(f *ast.File, enums *EnumRegistry, gens *GeneratorRegistry) (*Graph, diag.List) {
	var diags diag.List
	g := NewGraph()

	// Pass one: declare placeholders so forward references by name resolve.
	for _, td := range f.Tables {
		g.tables[td.Name] = &Table{Name: td.Name}
		g.order = append(g.order, td.Name)
	}
	for _, vd := range f.Views {
		g.views[vd.Name] = &View{Name: vd.Name}
		g.order = append(g.order, vd.Name)
	}

	// Pass two: resolve columns and assemble entities.
	for _, td := range f.Tables {
		cols := make([]*Column, 0, len(td.Columns))
		for _, cd := range td.Columns {
			col, colDiags := ResolveColumn(cd, enums, gens)
			diags = diags.Merge(colDiags)
			cols = append(cols, col)
		}
		table, tblDiags := Assemble(td, cols)
		diags = diags.Merge(tblDiags)
		diags = g.checkReferences(table, diags)
		*g.tables[td.Name] = *table
	}
	for _, vd := range f.Views {
		view, viewDiags := AssembleView(vd, g)
		diags = diags.Merge(viewDiags)
		*g.views[vd.Name] = *view
	}

	return g, diags
}

// checkReferences validates that structural foreign keys land on registered
// tables and columns. Textual references inside custom-constraint overrides
// are deliberately not checked.
func (g *Graph) checkReferences(t *Table, diags diag.List) diag.List {
	for _, c := range t.Columns {
		fk, ok := c.ForeignKeyConstraint()
		if !ok {
			continue
		}
		target := g.Table(fk.Table)
		if target == nil {
			diags = diags.Add(diag.Errorf(diag.KindUnknownTable, c.Span,
				"column %q.%q references unknown table %q", t.Name, c.Name, fk.Table))
			continue
		}
		// The target table may not be assembled yet during pass two; column
		// checks only apply once it is.
		if len(target.Columns) > 0 && target.Column(fk.Column) == nil {
			diags = diags.Add(diag.Errorf(diag.KindUnknownColumn, c.Span,
				"column %q.%q references unknown column %q.%q", t.Name, c.Name, fk.Table, fk.Column))
		}
	}
	return diags
}
