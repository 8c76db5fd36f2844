package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
	"github.com/rowshape/rowshape/schema"
)

func testGraph(t *testing.T) *schema.Graph {
	t.Helper()

	enums := schema.NewEnumRegistry()
	enums.Register("Status", "active", "blocked")

	file := &ast.File{
		Tables: []*ast.TableDecl{
			{
				Name: "users",
				Columns: []*ast.ColumnDecl{
					{Name: "id", Type: ast.Integer, AutoIncrement: true},
					{Name: "name", Type: ast.Text},
					{Name: "bio", Type: ast.Text, Nullable: true},
					{Name: "status", Type: ast.Integer, EnumIndex: &ast.EnumSpec{Enum: "Status"}},
				},
			},
			{
				Name: "posts",
				Columns: []*ast.ColumnDecl{
					{Name: "id", Type: ast.Integer, AutoIncrement: true},
					{Name: "title", Type: ast.Text},
				},
			},
		},
	}

	g, diags := schema.BuildGraph(file, enums, nil)
	require.Empty(t, diags)
	return g
}

// =========================================================================
// Scalar Resolution Tests
// =========================================================================

func TestResolveColumnReference(t *testing.T) {
	r := NewResolver(testGraph(t), nil)

	t.Run("NonNullable", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Expr: &ast.ColumnRef{Table: "users", Column: "name"}},
		})
		require.Empty(t, diags)
		require.Len(t, cols, 1)

		sc := cols[0].(*Scalar)
		assert.Equal(t, "name", sc.Name)
		assert.Equal(t, ast.Text, sc.Type)
		assert.False(t, sc.Nullable)
	})

	t.Run("NullableColumn", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Expr: &ast.ColumnRef{Table: "users", Column: "bio"}},
		})
		require.Empty(t, diags)
		assert.True(t, cols[0].(*Scalar).Nullable)
	})

	t.Run("OuterJoinForcesNullable", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Expr: &ast.ColumnRef{Table: "users", Column: "name", OuterJoined: true}},
		})
		require.Empty(t, diags)
		assert.True(t, cols[0].(*Scalar).Nullable)
	})

	t.Run("AliasWins", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Name: "display_name", Expr: &ast.ColumnRef{Table: "users", Column: "name"}},
		})
		require.Empty(t, diags)
		assert.Equal(t, "display_name", cols[0].ColumnName())
	})

	t.Run("ConverterHostType", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Expr: &ast.ColumnRef{Table: "users", Column: "status"}},
		})
		require.Empty(t, diags)
		assert.Equal(t, "Status", cols[0].(*Scalar).HostType)
	})

	t.Run("UnknownColumnDegradesToPlaceholder", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Name: "ghost", Expr: &ast.ColumnRef{Table: "users", Column: "ghost"}},
		})
		require.Len(t, diags, 1)
		assert.Equal(t, diag.KindUnknownColumn, diags[0].Kind)
		require.Len(t, cols, 1, "resolution continues on a placeholder")
		assert.True(t, cols[0].(*Scalar).Nullable)
	})

	t.Run("UnknownTable", func(t *testing.T) {
		_, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Name: "x", Expr: &ast.ColumnRef{Table: "nowhere", Column: "x"}},
		})
		require.Len(t, diags, 1)
		assert.Equal(t, diag.KindUnknownTable, diags[0].Kind)
	})
}

func TestResolveComputedExpressions(t *testing.T) {
	r := NewResolver(testGraph(t), nil)

	t.Run("LiteralIsNonNullable", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Name: "r", Expr: &ast.Literal{Kind: ast.LitInt, Value: "1"}},
		})
		require.Empty(t, diags)

		sc := cols[0].(*Scalar)
		assert.Equal(t, ast.Integer, sc.Type)
		assert.False(t, sc.Nullable)
	})

	t.Run("NullLiteralIsNullable", func(t *testing.T) {
		cols, _ := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Name: "n", Expr: &ast.Literal{Kind: ast.LitNull}},
		})
		assert.True(t, cols[0].(*Scalar).Nullable)
	})

	t.Run("AggregateIsNullable", func(t *testing.T) {
		cols, _ := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Name: "total", Expr: &ast.Call{Fn: "count"}},
		})

		sc := cols[0].(*Scalar)
		assert.Equal(t, ast.Integer, sc.Type)
		assert.True(t, sc.Nullable, "computed values stay nullable even when the engine never returns NULL")
	})
}

// =========================================================================
// Nested Projection Tests
// =========================================================================

func TestResolveStarProjection(t *testing.T) {
	r := NewResolver(testGraph(t), nil)

	t.Run("InnerJoin", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.StarItem{Table: "users"},
		})
		require.Empty(t, diags)

		nt := cols[0].(*NestedTable)
		assert.Equal(t, "users", nt.Name)
		assert.False(t, nt.Nullable)
		require.NotNil(t, nt.Table)
		assert.Len(t, nt.Table.Columns, 4)
	})

	t.Run("OuterJoin", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.StarItem{Table: "posts", OuterJoined: true},
		})
		require.Empty(t, diags)
		assert.True(t, cols[0].(*NestedTable).Nullable)
	})

	t.Run("UnknownTable", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.StarItem{Table: "ghosts"},
		})
		require.Len(t, diags, 1)
		assert.Equal(t, diag.KindUnknownTable, diags[0].Kind)
		assert.Empty(t, cols)
	})
}

func TestResolveSubquery(t *testing.T) {
	r := NewResolver(testGraph(t), nil)

	cols, diags := r.Resolve([]ast.ProjectionItem{
		&ast.ExprItem{Expr: &ast.ColumnRef{Table: "users", Column: "name"}},
		&ast.SubqueryItem{
			Name: "posts",
			Items: []ast.ProjectionItem{
				&ast.ExprItem{Expr: &ast.ColumnRef{Table: "posts", Column: "id"}},
				&ast.ExprItem{Expr: &ast.ColumnRef{Table: "posts", Column: "title"}},
			},
		},
	})
	require.Empty(t, diags)
	require.Len(t, cols, 2)

	list := cols[1].(*NestedList)
	assert.Equal(t, "posts", list.Name)
	require.Len(t, list.Columns, 2)
	assert.Equal(t, "id", list.Columns[0].ColumnName())
	assert.Equal(t, "title", list.Columns[1].ColumnName())
}

func TestResolveDuplicateNames(t *testing.T) {
	r := NewResolver(testGraph(t), nil)

	t.Run("SameLevelRejected", func(t *testing.T) {
		cols, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Expr: &ast.ColumnRef{Table: "users", Column: "name"}},
			&ast.ExprItem{Name: "name", Expr: &ast.ColumnRef{Table: "posts", Column: "title"}},
		})
		require.Len(t, diags, 1)
		assert.Equal(t, diag.KindDuplicateResultColumnName, diags[0].Kind)
		assert.Len(t, cols, 1, "later duplicate is dropped")
	})

	t.Run("DifferentLevelsAllowed", func(t *testing.T) {
		_, diags := r.Resolve([]ast.ProjectionItem{
			&ast.ExprItem{Expr: &ast.ColumnRef{Table: "users", Column: "id"}},
			&ast.SubqueryItem{
				Name: "posts",
				Items: []ast.ProjectionItem{
					&ast.ExprItem{Expr: &ast.ColumnRef{Table: "posts", Column: "id"}},
				},
			},
		})
		assert.Empty(t, diags, "names only collide within one nesting level")
	})
}

// =========================================================================
// Type Inference Tests
// =========================================================================

func TestLiteralInferrer(t *testing.T) {
	inf := LiteralInferrer{}

	tests := []struct {
		name string
		expr ast.Expr
		want ast.ScalarType
	}{
		{"IntLiteral", &ast.Literal{Kind: ast.LitInt}, ast.Integer},
		{"FloatLiteral", &ast.Literal{Kind: ast.LitFloat}, ast.Real},
		{"StringLiteral", &ast.Literal{Kind: ast.LitString}, ast.Text},
		{"BoolLiteral", &ast.Literal{Kind: ast.LitBool}, ast.Boolean},
		{"Count", &ast.Call{Fn: "COUNT"}, ast.Integer},
		{"Avg", &ast.Call{Fn: "avg"}, ast.Real},
		{"SumFollowsArg", &ast.Call{Fn: "sum", Args: []ast.Expr{&ast.Literal{Kind: ast.LitFloat}}}, ast.Real},
		{"Upper", &ast.Call{Fn: "upper"}, ast.Text},
		{"Comparison", &ast.Binary{Op: "=", Left: &ast.Literal{Kind: ast.LitInt}, Right: &ast.Literal{Kind: ast.LitInt}}, ast.Boolean},
		{"Concat", &ast.Binary{Op: "||", Left: &ast.Literal{Kind: ast.LitString}, Right: &ast.Literal{Kind: ast.LitString}}, ast.Text},
		{"ArithmeticWidens", &ast.Binary{Op: "+", Left: &ast.Literal{Kind: ast.LitInt}, Right: &ast.Literal{Kind: ast.LitFloat}}, ast.Real},
		{"ArithmeticInt", &ast.Binary{Op: "+", Left: &ast.Literal{Kind: ast.LitInt}, Right: &ast.Literal{Kind: ast.LitInt}}, ast.Integer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inf.Infer(tt.expr))
		})
	}
}

func TestOfTable(t *testing.T) {
	g := testGraph(t)

	cols := OfTable(g.Table("users"))
	require.Len(t, cols, 4)

	id := cols[0].(*Scalar)
	assert.Equal(t, "id", id.Name)
	assert.False(t, id.Nullable)

	status := cols[3].(*Scalar)
	assert.Equal(t, "Status", status.HostType)
}
