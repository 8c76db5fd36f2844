package rowtype

import (
	"fmt"
	"reflect"

	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
	"github.com/rowshape/rowshape/shape"
)

// MatchError is a structural mismatch between a shape tree and a target
// type. It is terminal for the query's binding but never for the file:
// sibling queries keep analyzing.
type MatchError struct {
	Kind    diag.Kind
	Message string
	Span    diag.Span
}

func (e *MatchError) Error() string {
	return e.Message
}

// Diagnostic converts the error into its reportable form.
func (e *MatchError) Diagnostic() diag.Diagnostic {
	return diag.Errorf(e.Kind, e.Span, "%s", e.Message)
}

func matchErrorf(kind diag.Kind, span diag.Span, format string, args ...any) *MatchError {
	return &MatchError{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// Matcher reconciles shape trees with existing-row-type descriptors.
type Matcher struct {
	intro *Introspector
}

// NewMatcher creates a matcher backed by the given introspector.
func NewMatcher(intro *Introspector) *Matcher {
	return &Matcher{intro: intro}
}

// Match computes the binding from every result column (or nested subtree) to
// a field of the target descriptor, recursively.
//
// Named matching is column-permissive: result columns with no corresponding
// declared field are ignored, which allows a query to map onto a partial row
// type. Positional matching requires exact arity. This asymmetry is
// deliberate and covered by tests.
func (m *Matcher) Match(cols []shape.ResultColumn, d Descriptor) (*Binding, *MatchError) {
	switch d := d.(type) {
	case *Alternatives:
		return m.matchAlternatives(cols, d)
	case *Unconstructible:
		return nil, matchErrorf(diag.KindNoUsableConstructor, diag.Span{},
			"type %s has no usable constructor: %s", d, d.Reason)
	case *SingleValue:
		return m.matchSingleValue(cols, d)
	case *Positional:
		return m.matchPositional(cols, d)
	case *Named:
		return m.matchNamed(cols, d)
	default:
		return nil, matchErrorf(diag.KindNoUsableConstructor, diag.Span{},
			"unsupported target descriptor %s", d)
	}
}

// matchAlternatives tries each candidate in declared order. The first clean
// match wins; when none match, the error from the last candidate attempted
// is surfaced, which callers rely on as the most specific one.
func (m *Matcher) matchAlternatives(cols []shape.ResultColumn, d *Alternatives) (*Binding, *MatchError) {
	if len(d.Options) == 0 {
		return nil, matchErrorf(diag.KindNoUsableConstructor, diag.Span{},
			"no candidate target types declared")
	}
	var lastErr *MatchError
	for _, option := range d.Options {
		binding, err := m.Match(cols, option)
		if err == nil {
			return binding, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (m *Matcher) matchSingleValue(cols []shape.ResultColumn, d *SingleValue) (*Binding, *MatchError) {
	if len(cols) != 1 {
		return nil, matchErrorf(diag.KindArityMismatch, spanOf(cols),
			"single-value target %s expects exactly one result column, got %d", d, len(cols))
	}
	bound, err := m.bind("", -1, d.Type, cols[0])
	if err != nil {
		return nil, err
	}
	return &Binding{Target: d, Columns: []*BoundColumn{bound}}, nil
}

func (m *Matcher) matchPositional(cols []shape.ResultColumn, d *Positional) (*Binding, *MatchError) {
	if len(d.Params) != len(cols) {
		return nil, matchErrorf(diag.KindPositionalArityMismatch, spanOf(cols),
			"target %s declares %d positional fields but the query produces %d columns",
			d, len(d.Params), len(cols))
	}
	binding := &Binding{Target: d}
	for i, param := range d.Params {
		bound, err := m.bind(param.Name, i, param.Type, cols[i])
		if err != nil {
			return nil, err
		}
		binding.Columns = append(binding.Columns, bound)
	}
	return binding, nil
}

func (m *Matcher) matchNamed(cols []shape.ResultColumn, d *Named) (*Binding, *MatchError) {
	byName := make(map[string]shape.ResultColumn, len(cols))
	for _, col := range cols {
		byName[col.ColumnName()] = col
	}

	binding := &Binding{Target: d}
	for _, field := range d.Fields {
		col, ok := byName[field.Name]
		if !ok {
			return nil, matchErrorf(diag.KindUnmatchedField, spanOf(cols),
				"field %q of %s has no matching result column", field.Name, d)
		}
		bound, err := m.bind(field.Name, -1, field.Type, col)
		if err != nil {
			return nil, err
		}
		binding.Columns = append(binding.Columns, bound)
	}
	return binding, nil
}

// bind reconciles one (target type, result column) pair.
func (m *Matcher) bind(field string, index int, t reflect.Type, col shape.ResultColumn) (*BoundColumn, *MatchError) {
	switch col := col.(type) {
	case *shape.Scalar:
		if !scalarCompatible(t, col) {
			return nil, matchErrorf(diag.KindScalarTypeMismatch, col.Span,
				"column %q requires %s, target declares %s",
				col.Name, requiredType(col), t)
		}
		return &BoundColumn{Column: col, Field: field, Index: index}, nil

	case *shape.NestedTable:
		// A nested row from the non-preserved side of an outer join may be
		// absent, so it needs a null-capable target like a nullable scalar.
		if col.Nullable && t.Kind() != reflect.Pointer {
			return nil, matchErrorf(diag.KindScalarTypeMismatch, col.Span,
				"nested row %q may be absent and requires a pointer target, target declares %s", col.Name, t)
		}
		elem := deref(t)
		if canonical := m.intro.CanonicalRowType(col.Table.Name); canonical != nil && canonical == elem {
			return &BoundColumn{Column: col, Field: field, Index: index, Canonical: true}, nil
		}
		nested, err := m.Match(shape.OfTable(col.Table), m.intro.DescribeType(elem))
		if err != nil {
			return nil, err
		}
		return &BoundColumn{Column: col, Field: field, Index: index, Nested: nested}, nil

	case *shape.NestedList:
		elem, ok := listElement(t)
		if !ok {
			return nil, matchErrorf(diag.KindNotAList, col.Span,
				"sub-query column %q needs a list-like target, %s is not one", col.Name, t)
		}
		nested, err := m.Match(col.Columns, m.intro.DescribeType(elem))
		if err != nil {
			return nil, err
		}
		return &BoundColumn{Column: col, Field: field, Index: index, Nested: nested}, nil

	default:
		return nil, matchErrorf(diag.KindScalarTypeMismatch, diag.Span{},
			"unsupported result column variant for field %q", field)
	}
}

func deref(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// listElement returns the element type of a list-like target. []byte does
// not count: it holds a single blob value.
func listElement(t reflect.Type) (reflect.Type, bool) {
	t = deref(t)
	if t.Kind() != reflect.Slice || t == bytesType {
		return nil, false
	}
	return t.Elem(), true
}

func spanOf(cols []shape.ResultColumn) diag.Span {
	for _, col := range cols {
		switch c := col.(type) {
		case *shape.Scalar:
			return c.Span
		case *shape.NestedTable:
			return c.Span
		case *shape.NestedList:
			return c.Span
		}
	}
	return diag.Span{}
}

// scalarCompatible reports whether a declared field type can hold a scalar
// column's values. A nullable column needs a null-capable field (pointer or
// sql.Null wrapper); wider host types are accepted, including the public
// type of an applied converter.
func scalarCompatible(t reflect.Type, col *shape.Scalar) bool {
	base := t
	nullCapable := false

	if base.Kind() == reflect.Pointer {
		base = base.Elem()
		nullCapable = true
	}
	if wrapped, ok := nullWrapperElem(base); ok {
		base = wrapped
		nullCapable = true
	}

	if col.Nullable && !nullCapable {
		return false
	}

	// A converter's public type is matched by name: enum-backed and
	// caller-converted columns surface as their host type, never as their
	// storage type.
	if col.HostType != "" {
		return base.Name() == col.HostType || base.String() == col.HostType
	}

	switch col.Type {
	case ast.Integer, ast.BigInt:
		switch base.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		case reflect.Float32, reflect.Float64:
			return true // widening
		}
	case ast.Real:
		return base.Kind() == reflect.Float32 || base.Kind() == reflect.Float64
	case ast.Text:
		return base.Kind() == reflect.String
	case ast.Blob:
		return base == bytesType || (base.Kind() == reflect.Slice && base.Elem().Kind() == reflect.Uint8)
	case ast.Boolean:
		return base.Kind() == reflect.Bool
	case ast.DateTime:
		return base == timeType
	}
	return false
}

// nullWrapperElem maps the sql.Null wrappers to their value type.
func nullWrapperElem(t reflect.Type) (reflect.Type, bool) {
	switch t {
	case nullStringTyp:
		return reflect.TypeOf(""), true
	case nullInt64Typ:
		return reflect.TypeOf(int64(0)), true
	case nullInt32Typ:
		return reflect.TypeOf(int32(0)), true
	case nullFloatTyp:
		return reflect.TypeOf(float64(0)), true
	case nullBoolTyp:
		return reflect.TypeOf(false), true
	case nullTimeTyp:
		return timeType, true
	}
	return nil, false
}

// requiredType renders the field type a scalar column demands, for the
// ScalarTypeMismatch message.
func requiredType(col *shape.Scalar) string {
	var base string
	if col.HostType != "" {
		base = col.HostType
	} else {
		switch col.Type {
		case ast.Integer, ast.BigInt:
			base = "an integer type"
		case ast.Real:
			base = "a floating-point type"
		case ast.Text:
			base = "string"
		case ast.Blob:
			base = "[]byte"
		case ast.Boolean:
			base = "bool"
		case ast.DateTime:
			base = "time.Time"
		default:
			base = col.Type.String()
		}
	}
	if col.Nullable {
		return fmt.Sprintf("a nullable %s", base)
	}
	return base
}
