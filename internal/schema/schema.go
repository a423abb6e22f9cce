// Package schema implements the document schema model: field descriptors
// with first-class default metadata, full and partial validation, and
// default extraction. Defaults are declared on the schema rather than
// probed out of a validation pass, so deriving them is a plain walk over
// the field list; external validators that only expose an opaque validate
// function are adapted in custom.go, where the probe technique survives.
package schema

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mango-db/mango/internal/core"
)

// FieldType enumerates the value types a field may declare.
type FieldType string

const (
	String   FieldType = "string"
	Int      FieldType = "int"
	Float    FieldType = "float"
	Bool     FieldType = "bool"
	Time     FieldType = "time"
	ObjectID FieldType = "objectId"
	Array    FieldType = "array"
	Object   FieldType = "object"
	Any      FieldType = "any"
)

// FieldSpec describes a single document field: its type, constraints and
// optional default.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Required bool
	Default  *core.DefaultValue

	// Min and Max bound numeric values, or lengths for strings and arrays.
	Min *float64
	Max *float64

	// Enum restricts the value to a fixed set.
	Enum []interface{}

	// Elem is the element spec for Array fields.
	Elem *FieldSpec

	// Fields is the nested spec for Object fields. Schemas are tree-shaped;
	// recursive shapes are not supported.
	Fields []FieldSpec
}

// FieldOption configures a FieldSpec.
type FieldOption func(*FieldSpec)

// Required marks the field as mandatory in full validation.
func Required() FieldOption {
	return func(f *FieldSpec) { f.Required = true }
}

// Default declares a literal default value.
func Default(value interface{}) FieldOption {
	return func(f *FieldSpec) { f.Default = &core.DefaultValue{Literal: value} }
}

// DefaultFunc declares a producer default, resolved per write.
func DefaultFunc(fn func() interface{}) FieldOption {
	return func(f *FieldSpec) { f.Default = &core.DefaultValue{Producer: fn} }
}

// Min bounds the value (numeric) or length (string, array) from below.
func Min(min float64) FieldOption {
	return func(f *FieldSpec) { f.Min = &min }
}

// Max bounds the value (numeric) or length (string, array) from above.
func Max(max float64) FieldOption {
	return func(f *FieldSpec) { f.Max = &max }
}

// Enum restricts the field to one of the given values.
func Enum(values ...interface{}) FieldOption {
	return func(f *FieldSpec) { f.Enum = values }
}

// Elem sets the element spec for an Array field.
func Elem(elem FieldSpec) FieldOption {
	return func(f *FieldSpec) { f.Elem = &elem }
}

// Nested sets the field specs for an Object field.
func Nested(fields ...FieldSpec) FieldOption {
	return func(f *FieldSpec) { f.Fields = fields }
}

// Field builds a FieldSpec.
func Field(name string, fieldType FieldType, opts ...FieldOption) FieldSpec {
	spec := FieldSpec{Name: name, Type: fieldType}
	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

// Schema is the built-in declarative schema. Immutable once constructed;
// derived artifacts (the DefaultsMap) are computed lazily and cached on the
// schema itself, so the cache cannot outlive the schema.
type Schema struct {
	id      string
	fields  []FieldSpec
	byName  map[string]*FieldSpec
	strict  bool
	refines []Refinement

	defaultsOnce sync.Once
	defaults     core.DefaultsMap
}

var _ core.Validator = (*Schema)(nil)

// Refinement is a named document-level check run after field validation.
type Refinement struct {
	Name  string
	Check func(core.Document) error
}

// SchemaOption configures a Schema at construction.
type SchemaOption func(*Schema)

// Strict rejects fields not declared in the schema instead of passing them
// through.
func Strict() SchemaOption {
	return func(s *Schema) { s.strict = true }
}

// Refine registers a document-level refinement.
func Refine(name string, check func(core.Document) error) SchemaOption {
	return func(s *Schema) {
		s.refines = append(s.refines, Refinement{Name: name, Check: check})
	}
}

// New builds a Schema from field specs. Panics on a duplicate field name,
// which is a programming error in the schema declaration.
func New(fields []FieldSpec, opts ...SchemaOption) *Schema {
	s := &Schema{
		id:     uuid.NewString(),
		fields: fields,
		byName: make(map[string]*FieldSpec, len(fields)),
	}
	for i := range fields {
		name := fields[i].Name
		if name == "" {
			panic("schema: field with empty name")
		}
		if name == core.IDField {
			panic(fmt.Sprintf("schema: %q is reserved for the store identifier", core.IDField))
		}
		if _, dup := s.byName[name]; dup {
			panic(fmt.Sprintf("schema: duplicate field %q", name))
		}
		s.byName[name] = &s.fields[i]
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the schema's process-unique identity.
func (s *Schema) ID() string { return s.id }

// Fields returns the declared field specs.
func (s *Schema) Fields() []FieldSpec { return s.fields }

// Async always reports false: built-in validation is synchronous.
func (s *Schema) Async() bool { return false }

// Defaults returns the schema's DefaultsMap, derived on first use and
// cached for the schema's lifetime. Concurrent first calls are benign; the
// map is a pure function of the schema. Callers must not mutate it.
func (s *Schema) Defaults() core.DefaultsMap {
	s.defaultsOnce.Do(func() {
		defaults := make(core.DefaultsMap)
		for i := range s.fields {
			if s.fields[i].Default != nil {
				defaults[s.fields[i].Name] = *s.fields[i].Default
			}
		}
		s.defaults = defaults
	})
	return s.defaults
}
