package update

import (
	"github.com/mango-db/mango/internal/core"
)

// The resolver implements one defaulting policy per write path:
//
//	insert          full validation; defaults for every absent field
//	update          partial validation; no defaults
//	upsert update   partial validation; insert-only defaults for fields
//	                neither modified by the update nor pinned by the filter
//	replace         full validation (defaults back-filled); identifier
//	                stripped from the payload
//	upsert replace  same as replace; the validated payload is already a
//	                complete document, so insert-only handling is moot
//
// PrepareInsert, PrepareUpdate and PrepareReplace are pure: inputs are
// never mutated, shared state is limited to the validator's own caches.

// PrepareInsert runs full validation for an insert payload.
func PrepareInsert(v core.Validator, doc core.Document) (core.Document, core.Issues) {
	return v.Validate(doc)
}

// PrepareReplace runs full validation for a replacement payload and strips
// the identifier: the operation's filter supplies the identity, not the
// payload. Upsert does not change the handling: full validation already
// guarantees every defaulted field is present in the document an upsert
// would insert.
func PrepareReplace(v core.Validator, doc core.Document) (core.Document, core.Issues) {
	validated, issues := v.Validate(doc)
	if len(issues) > 0 {
		return nil, issues
	}
	delete(validated, core.IDField)
	return validated, nil
}

// PrepareUpdate normalizes and validates an operator document, then, for
// upserts, injects insert-only defaults. A bare document with no operator
// keys is treated as a $set of its fields. The value-carrying operators
// ($set and $setOnInsert) are partially validated; operators expressing
// deltas or structural edits pass through untouched.
func PrepareUpdate(v core.Validator, changes, filter core.Document, upsert bool) (core.Document, core.Issues) {
	norm := normalizeChanges(changes)

	for _, op := range []string{core.OpSet, core.OpSetOnInsert} {
		sub, ok := asDocument(norm[op])
		if !ok {
			continue
		}
		validated, issues := v.ValidatePartial(sub)
		if len(issues) > 0 {
			return nil, issues
		}
		norm[op] = validated
	}

	if upsert {
		norm = applyInsertOnlyDefaults(norm, filter, v.Defaults())
	}
	return norm, nil
}

// normalizeChanges returns a shallow copy of the operator document,
// wrapping a bare field document in $set.
func normalizeChanges(changes core.Document) core.Document {
	out := make(core.Document, len(changes))
	operators := false
	for key := range changes {
		if core.IsOperatorKey(key) {
			operators = true
			break
		}
	}
	if !operators && len(changes) > 0 {
		set := make(core.Document, len(changes))
		for key, value := range changes {
			set[key] = value
		}
		out[core.OpSet] = set
		return out
	}
	for key, value := range changes {
		out[key] = value
	}
	return out
}

// applyInsertOnlyDefaults merges the schema defaults that survive
// provenance subtraction into $setOnInsert. A field already modified by
// the update keeps the caller's value (explicit intent wins); a field
// pinned by filter equality is left to the store, which materializes it
// from the filter on insert; injecting it as well would conflict in the
// store's insert-only handling. Caller-supplied $setOnInsert entries are
// never overwritten. With nothing to inject the operator document is
// returned unchanged.
func applyInsertOnlyDefaults(changes, filter core.Document, defaults core.DefaultsMap) core.Document {
	if len(defaults) == 0 {
		return changes
	}

	modified := ModifiedFields(changes)
	pinned := EqualityPinnedFields(filter)

	remainder := make([]string, 0, len(defaults))
	for name := range defaults {
		if modified.Has(name) || pinned.Has(name) {
			continue
		}
		remainder = append(remainder, name)
	}
	if len(remainder) == 0 {
		return changes
	}

	setOnInsert := make(core.Document)
	if existing, ok := asDocument(changes[core.OpSetOnInsert]); ok {
		for key, value := range existing {
			setOnInsert[key] = value
		}
	}
	for _, name := range remainder {
		if _, taken := setOnInsert[name]; taken {
			continue
		}
		setOnInsert[name] = defaults[name].Resolve()
	}

	out := make(core.Document, len(changes)+1)
	for key, value := range changes {
		out[key] = value
	}
	out[core.OpSetOnInsert] = setOnInsert
	return out
}
