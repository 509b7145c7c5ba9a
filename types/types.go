// Package types is the typed-structure representation the module driver
// uses to expose enrichment data to the rule program's root structure.
package types

import "fmt"

// Value is the sum type every Field holds: Integer, Float, Bool, String,
// Struct, or Array.
type Value interface {
	Type() string
	EqType(other Value) bool
}

// Integer is a signed 64-bit integer value.
type Integer int64

func (Integer) Type() string { return "integer" }
func (v Integer) EqType(o Value) bool { _, ok := o.(Integer); return ok }

// Float is a 64-bit floating point value.
type Float float64

func (Float) Type() string { return "float" }
func (v Float) EqType(o Value) bool { _, ok := o.(Float); return ok }

// Bool is a boolean value.
type Bool bool

func (Bool) Type() string { return "bool" }
func (v Bool) EqType(o Value) bool { _, ok := o.(Bool); return ok }

// String is a byte-string value.
type String []byte

func (String) Type() string { return "string" }
func (v String) EqType(o Value) bool { _, ok := o.(String); return ok }

// Array is a homogeneous list of values.
type Array struct {
	Elems []Value
}

func (Array) Type() string { return "array" }
func (v Array) EqType(o Value) bool { _, ok := o.(Array); return ok }

// Struct is a typed record of named fields, used both for the scan
// context's root structure and for each module's output.
type Struct struct {
	Name   string
	Fields []Field
	index  map[string]int
}

// Field is one named member of a Struct.
type Field struct {
	Name  string
	Value Value
}

func (Struct) Type() string { return "struct" }

// EqType compares field names and per-field types, not values.
func (s Struct) EqType(o Value) bool {
	other, ok := o.(Struct)
	if !ok || len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f.Name != other.Fields[i].Name || !f.Value.EqType(other.Fields[i].Value) {
			return false
		}
	}
	return true
}

// NewStruct returns an empty named struct ready for AddField.
func NewStruct(name string) *Struct {
	return &Struct{Name: name, index: make(map[string]int)}
}

// AddField appends or overwrites a named field.
func (s *Struct) AddField(name string, v Value) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[name]; ok {
		s.Fields[i].Value = v
		return
	}
	s.index[name] = len(s.Fields)
	s.Fields = append(s.Fields, Field{Name: name, Value: v})
}

// FieldByName returns the named field's value, or nil if absent.
func (s *Struct) FieldByName(name string) (Value, bool) {
	if s.index == nil {
		return nil, false
	}
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.Fields[i].Value, true
}

// SetField overwrites an existing field's value after checking its type
// matches, the invariant scanner.Scanner.SetGlobal relies on.
func (s *Struct) SetField(name string, v Value) error {
	cur, ok := s.FieldByName(name)
	if !ok {
		return fmt.Errorf("undeclared field %q", name)
	}
	if !cur.EqType(v) {
		return fmt.Errorf("field %q: type mismatch: declared %s, got %s", name, cur.Type(), v.Type())
	}
	s.AddField(name, v)
	return nil
}
