package mango

import (
	"github.com/mango-db/mango/internal/core"
	"github.com/mango-db/mango/internal/schema"
)

// Document is a stored document: field name to value.
type Document = core.Document

// Schema is the built-in declarative document schema.
type Schema = schema.Schema

// FieldSpec describes a single schema field.
type FieldSpec = schema.FieldSpec

// FieldOption configures a FieldSpec.
type FieldOption = schema.FieldOption

// SchemaOption configures a Schema at construction.
type SchemaOption = schema.SchemaOption

// Validator is the contract every write path requires from a schema. The
// built-in Schema satisfies it; Custom adapts external validators.
type Validator = core.Validator

// CustomValidator specifies an externally implemented validator for
// Custom.
type CustomValidator = schema.CustomSpec

// Field types.
const (
	String   = schema.String
	Int      = schema.Int
	Float    = schema.Float
	Bool     = schema.Bool
	Time     = schema.Time
	ObjectID = schema.ObjectID
	Array    = schema.Array
	Object   = schema.Object
	Any      = schema.Any
)

// Field builds a field spec.
//
//	mango.Field("category", mango.String, mango.Default("general"))
func Field(name string, fieldType schema.FieldType, opts ...FieldOption) FieldSpec {
	return schema.Field(name, fieldType, opts...)
}

// Field options.
var (
	Required    = schema.Required
	Default     = schema.Default
	DefaultFunc = schema.DefaultFunc
	Min         = schema.Min
	Max         = schema.Max
	Enum        = schema.Enum
	Elem        = schema.Elem
	Nested      = schema.Nested
)

// Schema options.
var (
	Strict = schema.Strict
	Refine = schema.Refine
)

// NewSchema builds a schema from field specs.
func NewSchema(fields ...FieldSpec) *Schema {
	return schema.New(fields)
}

// BuildSchema builds a schema with schema-level options (Strict, Refine).
func BuildSchema(fields []FieldSpec, opts ...SchemaOption) *Schema {
	return schema.New(fields, opts...)
}

// Custom adapts an externally implemented validator to the write paths.
// Validators marked asynchronous are rejected by every write operation.
func Custom(spec CustomValidator) Validator {
	return schema.Adapt(spec)
}
