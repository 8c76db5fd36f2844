package rowtype

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
	"github.com/rowshape/rowshape/schema"
	"github.com/rowshape/rowshape/shape"
)

func usersTable(t *testing.T) *schema.Table {
	t.Helper()

	decls := []*ast.ColumnDecl{
		{Name: "id", Type: ast.Integer, AutoIncrement: true},
		{Name: "name", Type: ast.Text},
		{Name: "bio", Type: ast.Text, Nullable: true},
	}
	cols := make([]*schema.Column, 0, len(decls))
	for _, d := range decls {
		col, diags := schema.ResolveColumn(d, nil, nil)
		require.Empty(t, diags)
		cols = append(cols, col)
	}
	table, diags := schema.Assemble(&ast.TableDecl{Name: "users"}, cols)
	require.Empty(t, diags)
	return table
}

func scalar(name string, typ ast.ScalarType, nullable bool) *shape.Scalar {
	return &shape.Scalar{Name: name, Type: typ, Nullable: nullable}
}

type matchedUser struct {
	ID   int64   `db:"id"`
	Name string  `db:"name"`
	Bio  *string `db:"bio"`
}

// =========================================================================
// Single-Value Matching Tests
// =========================================================================

func TestMatchSingleValue(t *testing.T) {
	in := NewIntrospector(0)
	m := NewMatcher(in)

	t.Run("IntLiteralRoundTrip", func(t *testing.T) {
		cols := []shape.ResultColumn{scalar("r", ast.Integer, false)}

		binding, err := m.Match(cols, in.Describe(int64(0)))
		require.Nil(t, err)
		require.Len(t, binding.Columns, 1)
		assert.Equal(t, "r", binding.Columns[0].Column.ColumnName())
		assert.Empty(t, binding.Columns[0].Field)
	})

	t.Run("ArityMismatchCitesCount", func(t *testing.T) {
		cols := []shape.ResultColumn{
			scalar("a", ast.Integer, false),
			scalar("b", ast.Integer, false),
		}

		_, err := m.Match(cols, in.Describe(int64(0)))
		require.NotNil(t, err)
		assert.Equal(t, diag.KindArityMismatch, err.Kind)
		assert.Contains(t, err.Message, "got 2")
	})

	t.Run("NullableColumnNeedsNullCapableTarget", func(t *testing.T) {
		cols := []shape.ResultColumn{scalar("bio", ast.Text, true)}

		_, err := m.Match(cols, in.Describe(""))
		require.NotNil(t, err)
		assert.Equal(t, diag.KindScalarTypeMismatch, err.Kind)
		assert.Contains(t, err.Message, "nullable")

		_, err = m.Match(cols, in.Describe((*string)(nil)))
		assert.Nil(t, err, "pointer target accepts NULL")

		_, err = m.Match(cols, in.Describe(sql.NullString{}))
		assert.Nil(t, err, "sql.Null wrapper accepts NULL")
	})

	t.Run("DateTime", func(t *testing.T) {
		cols := []shape.ResultColumn{scalar("created_at", ast.DateTime, false)}

		_, err := m.Match(cols, in.Describe(time.Time{}))
		assert.Nil(t, err)

		_, err = m.Match(cols, in.Describe(int64(0)))
		require.NotNil(t, err)
		assert.Contains(t, err.Message, "time.Time")
	})

	t.Run("IntegerWidensToFloat", func(t *testing.T) {
		cols := []shape.ResultColumn{scalar("score", ast.Integer, false)}
		_, err := m.Match(cols, in.Describe(float64(0)))
		assert.Nil(t, err)
	})

	t.Run("ConvertedColumnRejectsStorageType", func(t *testing.T) {
		cols := []shape.ResultColumn{
			&shape.Scalar{Name: "status", Type: ast.Integer, HostType: "Status"},
		}

		_, err := m.Match(cols, in.Describe(int64(0)))
		require.NotNil(t, err, "an enum-backed column never binds to its raw storage type")
		assert.Equal(t, diag.KindScalarTypeMismatch, err.Kind)
		assert.Contains(t, err.Message, "Status")
	})

	t.Run("RealDoesNotNarrowToInt", func(t *testing.T) {
		cols := []shape.ResultColumn{scalar("ratio", ast.Real, false)}
		_, err := m.Match(cols, in.Describe(int64(0)))
		require.NotNil(t, err)
		assert.Equal(t, diag.KindScalarTypeMismatch, err.Kind)
	})
}

// =========================================================================
// Positional Matching Tests
// =========================================================================

func TestMatchPositional(t *testing.T) {
	in := NewIntrospector(0)
	m := NewMatcher(in)

	t.Run("ExactArity", func(t *testing.T) {
		cols := []shape.ResultColumn{
			scalar("total", ast.BigInt, false),
			&shape.NestedList{Name: "items", Columns: []shape.ResultColumn{
				scalar("qty", ast.Integer, false),
			}},
		}

		binding, err := m.Match(cols, in.Describe(untaggedPair{}))
		require.Nil(t, err)
		require.Len(t, binding.Columns, 2)
		assert.Equal(t, 0, binding.Columns[0].Index)
		assert.Equal(t, "Items", binding.Columns[1].Field)
		require.NotNil(t, binding.Columns[1].Nested)
	})

	t.Run("ArityMismatchCitesBothCounts", func(t *testing.T) {
		cols := []shape.ResultColumn{
			scalar("a", ast.Integer, false),
			scalar("b", ast.Integer, false),
			scalar("c", ast.Integer, false),
		}
		type oneField struct{ A int64 }

		_, err := m.Match(cols, in.Describe(oneField{}))
		require.NotNil(t, err)
		assert.Equal(t, diag.KindPositionalArityMismatch, err.Kind)
		assert.Contains(t, err.Message, "1 positional fields")
		assert.Contains(t, err.Message, "3 columns")
	})
}

// =========================================================================
// Named Matching Tests
// =========================================================================

func TestMatchNamed(t *testing.T) {
	in := NewIntrospector(0)
	m := NewMatcher(in)

	t.Run("AllFieldsBound", func(t *testing.T) {
		cols := []shape.ResultColumn{
			scalar("id", ast.Integer, false),
			scalar("name", ast.Text, false),
			scalar("bio", ast.Text, true),
		}

		binding, err := m.Match(cols, in.Describe(matchedUser{}))
		require.Nil(t, err)
		require.Len(t, binding.Columns, 3)

		bound, ok := binding.Bound("name")
		require.True(t, ok)
		assert.Equal(t, "name", bound.Column.ColumnName())
	})

	t.Run("ExtraColumnsIgnored", func(t *testing.T) {
		cols := []shape.ResultColumn{
			scalar("a", ast.Integer, false),
			scalar("b", ast.Integer, false),
			scalar("c", ast.Integer, false),
		}
		type partial struct {
			A int64 `db:"a"`
		}

		binding, err := m.Match(cols, in.Describe(partial{}))
		require.Nil(t, err)
		assert.Len(t, binding.Columns, 1, "named matching tolerates surplus columns")
	})

	t.Run("MissingColumnFails", func(t *testing.T) {
		cols := []shape.ResultColumn{scalar("id", ast.Integer, false)}

		_, err := m.Match(cols, in.Describe(matchedUser{}))
		require.NotNil(t, err)
		assert.Equal(t, diag.KindUnmatchedField, err.Kind)
		assert.Contains(t, err.Message, `"name"`)
	})

	t.Run("ConverterHostType", func(t *testing.T) {
		type account struct {
			Status int `db:"status"`
		}
		cols := []shape.ResultColumn{
			&shape.Scalar{Name: "status", Type: ast.Integer, HostType: "Status"},
		}

		_, err := m.Match(cols, in.Describe(account{}))
		require.NotNil(t, err, "converted column demands its host type")
		assert.Contains(t, err.Message, "Status")

		type Status int
		type typedAccount struct {
			Status Status `db:"status"`
		}
		_, err = m.Match(cols, in.Describe(typedAccount{}))
		assert.Nil(t, err)
	})
}

// =========================================================================
// Nested Projection Tests
// =========================================================================

func TestMatchNestedTable(t *testing.T) {
	in := NewIntrospector(0)
	m := NewMatcher(in)
	table := usersTable(t)

	t.Run("CanonicalFastPath", func(t *testing.T) {
		require.NoError(t, in.RegisterRowType("users", matchedUser{}))
		type wrapper struct {
			User *matchedUser `db:"users"`
		}
		cols := []shape.ResultColumn{
			&shape.NestedTable{Name: "users", Table: table},
		}

		binding, err := m.Match(cols, in.Describe(wrapper{}))
		require.Nil(t, err)
		require.Len(t, binding.Columns, 1)
		assert.True(t, binding.Columns[0].Canonical)
		assert.Nil(t, binding.Columns[0].Nested, "registered types skip field checking")
	})

	t.Run("StructuralRecursion", func(t *testing.T) {
		type otherUser struct {
			ID   int64   `db:"id"`
			Name string  `db:"name"`
			Bio  *string `db:"bio"`
		}
		type wrapper struct {
			User otherUser `db:"users"`
		}
		cols := []shape.ResultColumn{
			&shape.NestedTable{Name: "users", Table: table},
		}

		binding, err := m.Match(cols, in.Describe(wrapper{}))
		require.Nil(t, err)
		assert.False(t, binding.Columns[0].Canonical)
		require.NotNil(t, binding.Columns[0].Nested)
		assert.Len(t, binding.Columns[0].Nested.Columns, 3)
	})

	t.Run("StructuralMismatchSurfaces", func(t *testing.T) {
		type badUser struct {
			ID int64 `db:"id"`
			// Non-nullable field for a nullable column.
			Bio string `db:"bio"`
		}
		type wrapper struct {
			User badUser `db:"users"`
		}
		cols := []shape.ResultColumn{
			&shape.NestedTable{Name: "users", Table: table},
		}

		_, err := m.Match(cols, in.Describe(wrapper{}))
		require.NotNil(t, err)
		assert.Equal(t, diag.KindScalarTypeMismatch, err.Kind)
	})

	t.Run("OuterJoinedRowNeedsPointer", func(t *testing.T) {
		cols := []shape.ResultColumn{
			&shape.NestedTable{Name: "users", Table: table, Nullable: true},
		}

		type valueWrapper struct {
			User matchedUser `db:"users"`
		}
		_, err := m.Match(cols, in.Describe(valueWrapper{}))
		require.NotNil(t, err)
		assert.Equal(t, diag.KindScalarTypeMismatch, err.Kind)
		assert.Contains(t, err.Message, "pointer")

		type ptrWrapper struct {
			User *matchedUser `db:"users"`
		}
		_, err = m.Match(cols, in.Describe(ptrWrapper{}))
		assert.Nil(t, err, "a pointer field absorbs the absent row")
	})
}

func TestMatchNestedList(t *testing.T) {
	in := NewIntrospector(0)
	m := NewMatcher(in)

	cols := []shape.ResultColumn{
		&shape.NestedList{Name: "ids", Columns: []shape.ResultColumn{
			scalar("id", ast.Integer, false),
		}},
	}

	t.Run("SliceTarget", func(t *testing.T) {
		type holder struct {
			IDs []int64 `db:"ids"`
		}
		binding, err := m.Match(cols, in.Describe(holder{}))
		require.Nil(t, err)
		require.NotNil(t, binding.Columns[0].Nested)
	})

	t.Run("NonListTarget", func(t *testing.T) {
		type holder struct {
			IDs int64 `db:"ids"`
		}
		_, err := m.Match(cols, in.Describe(holder{}))
		require.NotNil(t, err)
		assert.Equal(t, diag.KindNotAList, err.Kind)
	})

	t.Run("ByteSliceIsNotAList", func(t *testing.T) {
		type holder struct {
			IDs []byte `db:"ids"`
		}
		_, err := m.Match(cols, in.Describe(holder{}))
		require.NotNil(t, err)
		assert.Equal(t, diag.KindNotAList, err.Kind)
	})
}

// =========================================================================
// Alternative and Degenerate Target Tests
// =========================================================================

func TestMatchAlternatives(t *testing.T) {
	in := NewIntrospector(0)
	m := NewMatcher(in)
	cols := []shape.ResultColumn{scalar("r", ast.Integer, false)}

	t.Run("FirstMatchWins", func(t *testing.T) {
		d := OneOf(in.Describe(int64(0)), in.Describe(""))
		binding, err := m.Match(cols, d)
		require.Nil(t, err)
		assert.NotNil(t, binding)
	})

	t.Run("LaterCandidateMatches", func(t *testing.T) {
		d := OneOf(in.Describe(""), in.Describe(int64(0)))
		_, err := m.Match(cols, d)
		assert.Nil(t, err)
	})

	t.Run("LastErrorSurfaced", func(t *testing.T) {
		d := OneOf(in.Describe(""), in.Describe(time.Time{}))
		_, err := m.Match(cols, d)
		require.NotNil(t, err)
		assert.Contains(t, err.Message, "time.Time", "error comes from the last candidate tried")
	})

	t.Run("NoCandidates", func(t *testing.T) {
		_, err := m.Match(cols, OneOf())
		require.NotNil(t, err)
		assert.Equal(t, diag.KindNoUsableConstructor, err.Kind)
	})
}

func TestMatchUnconstructible(t *testing.T) {
	in := NewIntrospector(0)
	m := NewMatcher(in)

	cols := []shape.ResultColumn{scalar("x", ast.Integer, false)}
	_, err := m.Match(cols, in.Describe(map[string]int{}))
	require.NotNil(t, err)
	assert.Equal(t, diag.KindNoUsableConstructor, err.Kind,
		"target shape is rejected before any field binding is attempted")
}
