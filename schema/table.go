package schema

import (
	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
)

// Table is an assembled table entity: its resolved columns in declaration
// order plus derived, cached facts about keys and insert requirements.
type Table struct {
	Name        string
	RowTypeName string

	Columns []*Column
	byName  map[string]*Column

	// UniqueSets holds table-wide unique constraints; column-local unique
	// constraints stay on the columns.
	UniqueSets []Unique

	primaryKey []*Column
	rowidAlias *Column
}

// Column returns the named column or nil.
func (t *Table) Column(name string) *Column {
	return t.byName[name]
}

// PrimaryKey returns the table's primary key column set. The set is derived
// once during assembly: an explicit declaration wins, otherwise a single
// column carrying a primary-key constraint, otherwise nothing.
func (t *Table) PrimaryKey() []*Column {
	return t.primaryKey
}

// RowidAlias returns the column acting as an alias for the engine-maintained
// row identifier, or nil. Such a column is the table's only primary-key
// column, integer typed and without an explicit default; the engine supplies
// its value on insert.
func (t *Table) RowidAlias() *Column {
	return t.rowidAlias
}

// RequiredForInsert reports whether a value must be supplied for the column
// when inserting a row. A rowid alias is insert-optional despite being
// non-nullable, as is any column with a default (engine-evaluated or
// client-computed).
func (t *Table) RequiredForInsert(c *Column) bool {
	if c.Nullable || c.HasDefault() {
		return false
	}
	if t.rowidAlias == c {
		return false
	}
	return true
}

// Assemble combines resolved columns into a table, inferring the primary key
// when none is declared and deriving the default row-type name.
func Assemble(decl *ast.TableDecl, cols []*Column) (*Table, diag.List) {
	var diags diag.List

	t := &Table{
		Name:        decl.Name,
		RowTypeName: decl.RowTypeName,
		byName:      make(map[string]*Column, len(cols)),
	}
	if t.RowTypeName == "" {
		t.RowTypeName = RowTypeName(decl.Name)
	}

	for _, c := range cols {
		if _, dup := t.byName[c.Name]; dup {
			diags = diags.Add(diag.Errorf(diag.KindDuplicateColumn, c.Span,
				"table %q declares column %q more than once", decl.Name, c.Name))
			continue
		}
		t.Columns = append(t.Columns, c)
		t.byName[c.Name] = c
	}

	for _, set := range decl.UniqueSets {
		t.UniqueSets = append(t.UniqueSets, Unique{Columns: set})
	}

	diags = t.derivePrimaryKey(decl, diags)
	t.deriveRowidAlias()

	return t, diags
}

// derivePrimaryKey resolves the table's primary key set. An explicit
// declaration must be a literal set of column names; computed key getters
// are rejected and treated as absent.
func (t *Table) derivePrimaryKey(decl *ast.TableDecl, diags diag.List) diag.List {
	if pk := decl.PrimaryKey; pk != nil {
		if !pk.Literal {
			diags = diags.Add(diag.Errorf(diag.KindInvalidPrimaryKeyDeclaration, pk.Span,
				"primary key of table %q must be a literal set of column names", decl.Name))
			return diags
		}
		for _, name := range pk.Columns {
			col := t.byName[name]
			if col == nil {
				diags = diags.Add(diag.Errorf(diag.KindUnknownColumn, pk.Span,
					"primary key of table %q names unknown column %q", decl.Name, name))
				continue
			}
			t.primaryKey = append(t.primaryKey, col)
		}
		return diags
	}

	// Column-level primary key constraints.
	var declared []*Column
	for _, c := range t.Columns {
		if c.IsPrimaryKey() {
			declared = append(declared, c)
		}
	}
	if len(declared) > 0 {
		t.primaryKey = declared
		return diags
	}

	// Infer: exactly one auto-increment style integer column acts as the
	// rowid alias and becomes the primary key.
	var inferred *Column
	for _, c := range t.Columns {
		if !isIntegerType(c.Type) || !c.IsAutoIncrement() {
			continue
		}
		if inferred != nil {
			return diags // ambiguous, no primary key
		}
		inferred = c
	}
	if inferred != nil {
		t.primaryKey = []*Column{inferred}
	}
	return diags
}

// deriveRowidAlias caches the rowid alias column: the sole primary-key
// column, integer typed, without an explicit default.
func (t *Table) deriveRowidAlias() {
	if len(t.primaryKey) != 1 {
		return
	}
	c := t.primaryKey[0]
	if isIntegerType(c.Type) && !c.HasDefault() {
		t.rowidAlias = c
	}
}

func isIntegerType(t ast.ScalarType) bool {
	return t == ast.Integer || t == ast.BigInt
}
