package schema

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/mango-db/mango/internal/core"
)

// CustomSpec adapts an externally implemented validator to the write
// paths' contract. Validate is mandatory. Relaxed is the all-fields-
// optional variant of the validation; when Partial is not supplied it is
// also the basis of partial validation.
type CustomSpec struct {
	// Validate runs full validation and returns the validated document.
	Validate func(core.Document) (core.Document, error)

	// Partial validates only the fields present in the input. Optional;
	// derived from Relaxed when nil.
	Partial func(core.Document) (core.Document, error)

	// Relaxed validates against an all-fields-optional variant of the
	// schema. Used to probe defaults and to derive Partial.
	Relaxed func(core.Document) (core.Document, error)

	// Async marks the validator as requiring asynchronous resolution.
	// Write paths reject async validators.
	Async bool
}

// customAdapter wraps a CustomSpec as a core.Validator. The defaults probe
// result is cached on the adapter, so it lives and dies with the schema it
// wraps.
type customAdapter struct {
	id   string
	spec CustomSpec

	defaultsOnce sync.Once
	defaults     core.DefaultsMap
}

var _ core.Validator = (*customAdapter)(nil)

// Adapt wraps an external validator specification.
func Adapt(spec CustomSpec) core.Validator {
	if spec.Validate == nil {
		panic("schema: CustomSpec.Validate is required")
	}
	return &customAdapter{id: uuid.NewString(), spec: spec}
}

func (a *customAdapter) ID() string  { return a.id }
func (a *customAdapter) Async() bool { return a.spec.Async }

func (a *customAdapter) Validate(doc core.Document) (core.Document, core.Issues) {
	out, err := a.spec.Validate(doc)
	if err != nil {
		return nil, toIssues(err)
	}
	return out, nil
}

// ValidatePartial prefers the external partial validation. Falling back to
// the relaxed validation, it keeps only the fields named in the input: a
// relaxed pass may itself inject defaults for absent optional fields, and
// those must be stripped so a partial update never reintroduces a field the
// caller did not touch.
func (a *customAdapter) ValidatePartial(doc core.Document) (core.Document, core.Issues) {
	if a.spec.Partial != nil {
		out, err := a.spec.Partial(doc)
		if err != nil {
			return nil, toIssues(err)
		}
		return out, nil
	}
	if a.spec.Relaxed == nil {
		return nil, core.Issues{{
			Path:    "",
			Code:    core.CodeCustom,
			Message: "external validator supports neither partial nor relaxed validation",
		}}
	}
	validated, err := a.spec.Relaxed(doc)
	if err != nil {
		return nil, toIssues(err)
	}
	out := make(core.Document, len(doc))
	for name := range doc {
		if value, present := validated[name]; present {
			out[name] = value
		}
	}
	return out, nil
}

// Defaults probes the external validator by running the relaxed validation
// against an empty document: any field the result defines can only have
// come from a declared default. Best effort: a failing or absent relaxed
// validation yields an empty map, never an error, because default
// extraction is an upsert ergonomics optimization, not a requirement of
// the write itself.
func (a *customAdapter) Defaults() core.DefaultsMap {
	a.defaultsOnce.Do(func() {
		a.defaults = core.DefaultsMap{}
		if a.spec.Relaxed == nil || a.spec.Async {
			return
		}
		probed, err := a.spec.Relaxed(core.Document{})
		if err != nil {
			return
		}
		for name, value := range probed {
			if value == nil || name == core.IDField {
				continue
			}
			a.defaults[name] = core.DefaultValue{Literal: value}
		}
	})
	return a.defaults
}

func toIssues(err error) core.Issues {
	var issues core.Issues
	if errors.As(err, &issues) {
		return issues
	}
	return core.Issues{{Path: "", Code: core.CodeCustom, Message: err.Error()}}
}
