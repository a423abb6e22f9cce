package schema

import (
	"fmt"
	"strings"

	"github.com/mango-db/mango/internal/core"
)

type validateMode int

const (
	// fullMode enforces required fields and applies declared defaults to
	// absent fields.
	fullMode validateMode = iota

	// partialMode validates only the fields present in the input and
	// returns exactly those fields. Required-ness is ignored and defaults
	// are never applied, so an unspecified field can never be reintroduced
	// into a partial update.
	partialMode
)

// Validate runs full validation: type and constraint checks on present
// fields, required enforcement, defaults for absent fields. The returned
// document is a fresh map; the input is never mutated.
func (s *Schema) Validate(doc core.Document) (core.Document, core.Issues) {
	out, issues := validateFields(s.fields, doc, "", s.strict, fullMode)
	if len(issues) > 0 {
		return nil, issues
	}
	if iss := s.runRefinements(out); len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// ValidatePartial validates the subset of fields present in doc and returns
// only those fields. Dotted keys are resolved against the nested field
// tree, so "meta.owner" is checked against the owner spec. Document-level
// refinements are skipped: they assume a complete document.
func (s *Schema) ValidatePartial(doc core.Document) (core.Document, core.Issues) {
	out, issues := validateFields(s.fields, doc, "", s.strict, partialMode)
	if len(issues) > 0 {
		return nil, issues
	}
	return out, nil
}

func (s *Schema) runRefinements(doc core.Document) core.Issues {
	var issues core.Issues
	for _, r := range s.refines {
		if err := r.Check(doc); err != nil {
			issues = append(issues, core.Issue{
				Path:    r.Name,
				Code:    core.CodeCustom,
				Message: err.Error(),
			})
		}
	}
	return issues
}

// validateFields is shared by full validation, partial validation and
// nested-object coercion. prefix carries the dotted path of the enclosing
// object, empty at the top level.
func validateFields(fields []FieldSpec, doc core.Document, prefix string, strict bool, mode validateMode) (core.Document, core.Issues) {
	byName := make(map[string]*FieldSpec, len(fields))
	for i := range fields {
		byName[fields[i].Name] = &fields[i]
	}

	out := make(core.Document, len(doc))
	var issues core.Issues

	for i := range fields {
		spec := &fields[i]
		path := prefix + spec.Name
		value, present := doc[spec.Name]

		if !present {
			if mode == partialMode {
				continue
			}
			if spec.Default != nil {
				out[spec.Name] = spec.Default.Resolve()
				continue
			}
			if spec.Required {
				issues = append(issues, core.Issue{
					Path:    path,
					Code:    core.CodeRequired,
					Message: fmt.Sprintf("field %q is required", path),
				})
			}
			continue
		}

		coerced, iss := coerce(spec, path, value)
		if len(iss) > 0 {
			issues = append(issues, iss...)
			continue
		}
		out[spec.Name] = coerced
	}

	// Undeclared fields pass through unchanged; the store is schemaless at
	// its edges. The identifier field is always carried as-is.
	for name, value := range doc {
		if _, declared := byName[name]; declared {
			continue
		}
		if name == core.IDField {
			out[name] = value
			continue
		}
		// Dotted keys address nested fields in update operators; resolve
		// them against the declared tree so "meta.owner" is checked
		// against the owner spec, not passed through blind.
		if mode == partialMode && strings.Contains(name, ".") {
			if spec := resolveDottedPath(fields, name); spec != nil {
				coerced, iss := coerce(spec, prefix+name, value)
				if len(iss) > 0 {
					issues = append(issues, iss...)
					continue
				}
				out[name] = coerced
				continue
			}
		}
		if strict {
			issues = append(issues, core.Issue{
				Path:    prefix + name,
				Code:    core.CodeInvalidType,
				Message: fmt.Sprintf("field %q is not declared in the schema", prefix+name),
			})
			continue
		}
		out[name] = value
	}

	if len(issues) > 0 {
		return nil, issues
	}
	return out, nil
}

// resolveDottedPath walks a dotted key ("meta.owner", "tags.0") through
// the declared field tree: object segments descend into Fields, numeric
// segments descend into an array's Elem. Returns nil when any segment is
// undeclared; such keys pass through like any other undeclared field.
func resolveDottedPath(fields []FieldSpec, name string) *FieldSpec {
	var spec *FieldSpec
	for _, segment := range strings.Split(name, ".") {
		switch {
		case spec == nil:
			spec = findField(fields, segment)
		case spec.Type == Object:
			spec = findField(spec.Fields, segment)
		case spec.Type == Array && isIndexSegment(segment):
			spec = spec.Elem
		default:
			return nil
		}
		if spec == nil {
			return nil
		}
	}
	return spec
}

func findField(fields []FieldSpec, name string) *FieldSpec {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

func isIndexSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
