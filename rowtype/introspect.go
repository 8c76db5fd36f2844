package rowtype

import (
	"database/sql"
	"fmt"
	"reflect"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Introspector derives descriptors from host types via reflection and caches
// them, since the same row types recur across every query in a file. It also
// keeps the registry of canonical row types per table, which backs the
// matcher's fast path for nested table projections.
type Introspector struct {
	cache   *lru.Cache[reflect.Type, Descriptor]
	tagName string

	mu       sync.RWMutex
	rowTypes map[string]reflect.Type
}

const defaultCacheSize = 256

// NewIntrospector creates an introspector with the given descriptor cache
// size; zero or negative falls back to the default.
func NewIntrospector(cacheSize int) *Introspector {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, _ := lru.New[reflect.Type, Descriptor](cacheSize)
	return &Introspector{
		cache:    cache,
		tagName:  "db",
		rowTypes: make(map[string]reflect.Type),
	}
}

// RegisterRowType declares sample's type as the canonical row type for a
// table. A nested projection of that table matched against this exact type
// is accepted without field-by-field checking.
func (in *Introspector) RegisterRowType(table string, sample any) error {
	t := reflect.TypeOf(sample)
	if t == nil {
		return fmt.Errorf("need a valid sample value, got nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("canonical row type for table %q must be a struct, got %s", table, t.Kind())
	}
	in.mu.Lock()
	in.rowTypes[table] = t
	in.mu.Unlock()
	return nil
}

// CanonicalRowType returns the registered row type for a table, or nil.
func (in *Introspector) CanonicalRowType(table string) reflect.Type {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.rowTypes[table]
}

// Describe derives the descriptor for a sample value's type.
func (in *Introspector) Describe(sample any) Descriptor {
	t := reflect.TypeOf(sample)
	if t == nil {
		return &Unconstructible{Reason: "nil sample value"}
	}
	return in.DescribeType(t)
}

// DescribeType derives the descriptor for a host type:
//
//   - plain scalar types (and time.Time, []byte, the sql.Null wrappers)
//     become single-value wrappers;
//   - structs with db-tagged fields expose named fields; named matching
//     always takes precedence when any tag is present;
//   - structs whose exported fields carry no tags expose positional
//     parameters in declaration order;
//   - everything else has no usable construction entry point.
func (in *Introspector) DescribeType(t reflect.Type) Descriptor {
	// Pointers to scalar wrappers keep their pointer type: it is what makes
	// the wrapper null-capable. Pointers to row types are dereferenced.
	if t.Kind() == reflect.Pointer && !isScalarHostType(t.Elem()) {
		t = t.Elem()
	}

	if d, ok := in.cache.Get(t); ok {
		return d
	}

	d := in.describe(t)
	in.cache.Add(t, d)
	return d
}

func (in *Introspector) describe(t reflect.Type) Descriptor {
	if isScalarHostType(t) {
		return &SingleValue{Type: t}
	}

	switch t.Kind() {
	case reflect.Struct:
		return in.describeStruct(t)
	case reflect.Pointer:
		// Only pointers to scalar host types reach here.
		return &SingleValue{Type: t}
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return &Unconstructible{Type: t, Reason: fmt.Sprintf("%s is not a row type", t.Kind())}
	default:
		// Remaining kinds are scalar-like named types.
		return &SingleValue{Type: t}
	}
}

func (in *Introspector) describeStruct(t reflect.Type) Descriptor {
	var fields []Field
	var params []Param
	byName := make(map[string]int)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag := f.Tag.Get(in.tagName)
		if tag == "-" {
			continue
		}
		if tag != "" {
			byName[tag] = len(fields)
			fields = append(fields, Field{Name: tag, GoName: f.Name, Type: f.Type, Index: i})
		}
		params = append(params, Param{Name: f.Name, Type: f.Type})
	}

	if len(fields) > 0 {
		return &Named{Type: t, Fields: fields, byName: byName}
	}
	if len(params) > 0 {
		return &Positional{Type: t, Params: params}
	}
	return &Unconstructible{Type: t, Reason: "struct has no usable fields"}
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	bytesType     = reflect.TypeOf([]byte(nil))
	nullStringTyp = reflect.TypeOf(sql.NullString{})
	nullInt64Typ  = reflect.TypeOf(sql.NullInt64{})
	nullInt32Typ  = reflect.TypeOf(sql.NullInt32{})
	nullFloatTyp  = reflect.TypeOf(sql.NullFloat64{})
	nullBoolTyp   = reflect.TypeOf(sql.NullBool{})
	nullTimeTyp   = reflect.TypeOf(sql.NullTime{})
)

// isScalarHostType reports whether a host type holds a single database value
// and therefore acts as a single-value wrapper rather than a row type.
func isScalarHostType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	if t == timeType || t == bytesType {
		return true
	}
	switch t {
	case nullStringTyp, nullInt64Typ, nullInt32Typ, nullFloatTyp, nullBoolTyp, nullTimeTyp:
		return true
	}
	return false
}
