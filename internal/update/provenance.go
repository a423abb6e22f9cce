// Package update implements the update-semantics engine: field provenance
// analysis over operator documents and query filters, and the resolver
// that decides which schema defaults each write path receives.
package update

import (
	"reflect"

	"github.com/mango-db/mango/internal/core"
	"go.mongodb.org/mongo-driver/bson"
)

// FieldSet is a set of field names.
type FieldSet map[string]struct{}

// Has reports membership.
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// ModifiedFields returns every field named by a recognized update operator
// in the operator document. Unrecognized operator keys are ignored; they do
// not affect defaulting decisions.
func ModifiedFields(changes core.Document) FieldSet {
	fields := make(FieldSet)
	for _, op := range core.UpdateOperators {
		sub, ok := asDocument(changes[op])
		if !ok {
			continue
		}
		for name := range sub {
			fields[name] = struct{}{}
		}
	}
	return fields
}

// EqualityPinnedFields returns every filter field whose predicate pins it
// to a concrete value: a literal, or an operator sub-document containing
// exactly the explicit-equality operator. Range, inclusion and negation
// operators do not pin a field, and neither does an operator sub-document
// with no operator keys at all, since such a predicate does not by itself
// determine the value the store materializes on insert.
func EqualityPinnedFields(filter core.Document) FieldSet {
	pinned := make(FieldSet)
	collectPinned(filter, pinned)
	return pinned
}

func collectPinned(filter core.Document, pinned FieldSet) {
	for key, value := range filter {
		if core.IsOperatorKey(key) {
			// Logical combinator: recurse into nested predicates.
			for _, nested := range nestedPredicates(value) {
				collectPinned(nested, pinned)
			}
			continue
		}

		sub, isDoc := asDocument(value)
		if !isDoc {
			if !isArray(value) {
				// Plain literal equality.
				pinned[key] = struct{}{}
			}
			continue
		}

		if len(sub) == 1 {
			if _, hasEq := sub[core.EqOperator]; hasEq {
				pinned[key] = struct{}{}
			}
		}
	}
}

// nestedPredicates extracts the predicate documents under a combinator
// value, which may be a single document or a list of documents.
func nestedPredicates(value interface{}) []core.Document {
	if doc, ok := asDocument(value); ok {
		return []core.Document{doc}
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil
	}
	var out []core.Document
	for i := 0; i < rv.Len(); i++ {
		if doc, ok := asDocument(rv.Index(i).Interface()); ok {
			out = append(out, doc)
		}
	}
	return out
}

// asDocument normalizes the map shapes filters and operator documents
// arrive in. bson.M is a named type, so it needs its own case even though
// it converts to Document directly; bson.D is rebuilt as a map.
func asDocument(value interface{}) (core.Document, bool) {
	switch v := value.(type) {
	case core.Document:
		return v, true
	case bson.M:
		return core.Document(v), true
	case bson.D:
		return v.Map(), true
	}
	return nil, false
}

func isArray(value interface{}) bool {
	if value == nil {
		return false
	}
	kind := reflect.TypeOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}
