package core

import "strings"

// Document is the generic representation of a stored document: a mapping
// from field name to value. The store's identifier field is IDField.
type Document = map[string]interface{}

// IDField is the store-assigned identifier field. It is never validated
// against a schema and never sent in a replacement payload.
const IDField = "_id"

// Update operator names. This is the fixed vocabulary the provenance
// analysis recognizes; anything else in an operator document is passed
// through to the store untouched.
const (
	OpSet         = "$set"
	OpUnset       = "$unset"
	OpInc         = "$inc"
	OpMul         = "$mul"
	OpRename      = "$rename"
	OpMin         = "$min"
	OpMax         = "$max"
	OpCurrentDate = "$currentDate"
	OpPush        = "$push"
	OpPull        = "$pull"
	OpAddToSet    = "$addToSet"
	OpPop         = "$pop"
	OpBit         = "$bit"
	OpSetOnInsert = "$setOnInsert"
)

// UpdateOperators lists every operator whose sub-document names fields
// the update explicitly touches.
var UpdateOperators = []string{
	OpSet, OpUnset, OpInc, OpMul, OpRename, OpMin, OpMax,
	OpCurrentDate, OpPush, OpPull, OpAddToSet, OpPop, OpBit, OpSetOnInsert,
}

// EqOperator is the explicit-equality filter operator. A filter field whose
// sub-document contains exactly this operator pins the field to a value.
const EqOperator = "$eq"

// IsOperatorKey reports whether a document key is an operator rather than a
// field name.
func IsOperatorKey(key string) bool {
	return strings.HasPrefix(key, "$")
}

// InsertOneResult is returned by a single-document insert.
type InsertOneResult struct {
	InsertedID interface{}
}

// InsertManyResult is returned by a batch insert.
type InsertManyResult struct {
	InsertedIDs []interface{}
}

// UpdateResult is returned by update and replace operations.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedCount int64
	UpsertedID    interface{}
}

// DeleteResult is returned by delete operations.
type DeleteResult struct {
	DeletedCount int64
}
