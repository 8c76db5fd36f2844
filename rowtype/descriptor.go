// Package rowtype matches a query's resolved shape tree against an existing
// row type supplied by the caller, producing a binding from every result
// column to a target field or a precise diagnostic.
package rowtype

import (
	"fmt"
	"reflect"
)

// Descriptor describes what the caller wants a query's rows mapped into.
// It is built once per query from host type information, consumed exactly
// once by the matcher and never mutated. The variant set is closed.
type Descriptor interface {
	descriptor()
	String() string
}

// SingleValue wraps the target type around exactly one result column.
type SingleValue struct {
	Type reflect.Type
}

// Param is one positional parameter of a target type.
type Param struct {
	Name string
	Type reflect.Type
}

// Positional binds result columns to declared parameters by position, in
// declaration order, with exact arity. It is only produced for target types
// that expose no named fields at all.
type Positional struct {
	Type   reflect.Type
	Params []Param
}

// Field is one named field of a target type.
type Field struct {
	Name   string // external (db tag) name matched against column names
	GoName string
	Type   reflect.Type
	Index  int
}

// Named binds result columns to declared fields by name. Declared fields
// must all be satisfied; extra result columns are ignored.
type Named struct {
	Type   reflect.Type
	Fields []Field
	byName map[string]int
}

// FieldNamed returns the declared field with the given external name.
func (d *Named) FieldNamed(name string) (Field, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Field{}, false
	}
	return d.Fields[i], true
}

// Alternatives tries each candidate descriptor in declared order; the first
// that matches wins, and when none do the error from the last candidate is
// surfaced as the most specific one.
type Alternatives struct {
	Options []Descriptor
}

// Unconstructible is a target type with no usable construction entry point.
// Matching against it fails immediately, before any field binding.
type Unconstructible struct {
	Type   reflect.Type
	Reason string
}

func (*SingleValue) descriptor()     {}
func (*Positional) descriptor()      {}
func (*Named) descriptor()           {}
func (*Alternatives) descriptor()    {}
func (*Unconstructible) descriptor() {}

func (d *SingleValue) String() string { return d.Type.String() }
func (d *Positional) String() string  { return d.Type.String() }
func (d *Named) String() string       { return d.Type.String() }
func (d *Unconstructible) String() string {
	if d.Type == nil {
		return "<nil>"
	}
	return d.Type.String()
}

func (d *Alternatives) String() string {
	if len(d.Options) == 0 {
		return "<no candidates>"
	}
	s := d.Options[0].String()
	for _, o := range d.Options[1:] {
		s += fmt.Sprintf(" | %s", o.String())
	}
	return s
}

// OneOf builds an ordered alternative-candidates descriptor.
func OneOf(options ...Descriptor) *Alternatives {
	return &Alternatives{Options: options}
}
