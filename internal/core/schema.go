package core

// DefaultValue is a schema-declared default: either a literal or a
// zero-argument producer (e.g. "current timestamp"). Exactly one of the
// two is set.
type DefaultValue struct {
	Literal  interface{}
	Producer func() interface{}
}

// Resolve materializes the default. Producers run at resolution time, so a
// timestamp default reflects the moment of the write, not the moment the
// schema was built.
func (d DefaultValue) Resolve() interface{} {
	if d.Producer != nil {
		return d.Producer()
	}
	return d.Literal
}

// DefaultsMap maps field name to its declared default. It is derived once
// per schema and cached for the schema's lifetime; producers inside it are
// resolved per write.
type DefaultsMap map[string]DefaultValue

// Validator is the narrow contract the write paths require from a schema.
// The built-in schema implements it; external validators are adapted to it.
type Validator interface {
	// Validate runs full validation: required fields enforced, declared
	// defaults applied to absent fields. Returns the validated document.
	Validate(doc Document) (Document, Issues)

	// ValidatePartial validates only the fields present in doc and returns
	// exactly those fields. Absent fields are never back-filled.
	ValidatePartial(doc Document) (Document, Issues)

	// Defaults returns the schema's DefaultsMap. Best-effort: a validator
	// that cannot report defaults returns an empty map, never an error.
	Defaults() DefaultsMap

	// Async reports whether validation requires asynchronous resolution,
	// which the write paths do not support.
	Async() bool

	// ID is a process-unique identity for the schema, assigned at
	// construction.
	ID() string
}
