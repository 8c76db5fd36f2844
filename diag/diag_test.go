package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListAccumulation(t *testing.T) {
	var l List
	assert.False(t, l.HasErrors())

	l = l.Add(Warningf(KindUnknownGenerator, Span{}, "unknown generator %q", "snowflake"))
	assert.False(t, l.HasErrors(), "warnings alone are not errors")

	l = l.Add(Errorf(KindUnknownTable, Span{File: "a.tbl", Line: 3, Column: 1}, "unknown table %q", "ghosts"))
	assert.True(t, l.HasErrors())

	other := List{Errorf(KindUnknownColumn, Span{}, "unknown column")}
	merged := l.Merge(other)
	assert.Len(t, merged, 3)
	assert.Len(t, l, 2, "merge does not mutate the receiver's view")

	assert.Len(t, merged.OfKind(KindUnknownTable), 1)
	assert.Empty(t, merged.OfKind(KindArityMismatch))
}

func TestDiagnosticString(t *testing.T) {
	d := Errorf(KindUnknownColumn, Span{File: "shop.tbl", Line: 12, Column: 5}, "unknown column %q", "ghost")
	assert.Equal(t, `shop.tbl:12:5: error: unknown column "ghost" (UnknownColumn)`, d.String())

	located := Warningf(KindDuplicateConverter, Span{}, "two converters")
	assert.Contains(t, located.String(), "<unknown>")
}

func TestSpanIsZero(t *testing.T) {
	assert.True(t, Span{}.IsZero())
	assert.False(t, Span{Line: 1}.IsZero())
}
