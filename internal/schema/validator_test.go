package schema

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mango-db/mango/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testSchema() *Schema {
	return New([]FieldSpec{
		Field("name", String, Required()),
		Field("price", Float, Min(0)),
		Field("category", String, Default("general")),
		Field("tags", Array, Default([]interface{}{}), Elem(Field("", String))),
		Field("stock", Int, Min(0), Max(1000)),
	})
}

func TestValidateAppliesDefaults(t *testing.T) {
	doc, issues := testSchema().Validate(core.Document{"name": "widget"})
	require.Empty(t, issues)
	assert.Equal(t, "general", doc["category"])
	assert.Equal(t, []interface{}{}, doc["tags"])
	assert.NotContains(t, doc, "price", "no default declared, field stays absent")
}

func TestValidateRequired(t *testing.T) {
	_, issues := testSchema().Validate(core.Document{})
	require.Len(t, issues, 1)
	assert.Equal(t, "name", issues[0].Path)
	assert.Equal(t, core.CodeRequired, issues[0].Code)
}

func TestValidateConstraintViolation(t *testing.T) {
	_, issues := testSchema().Validate(core.Document{
		"name":  "widget",
		"price": -3.5,
	})
	require.Len(t, issues, 1)
	assert.Equal(t, "price", issues[0].Path)
	assert.Equal(t, core.CodeTooSmall, issues[0].Code)
}

func TestValidateCollectsMultipleIssues(t *testing.T) {
	_, issues := testSchema().Validate(core.Document{
		"price": -1,
		"stock": 2000,
	})
	require.Len(t, issues, 3)
	paths := map[string]bool{}
	for _, issue := range issues {
		paths[issue.Path] = true
	}
	assert.True(t, paths["name"] && paths["price"] && paths["stock"])
}

func TestValidateTypeCoercion(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	oid := primitive.NewObjectID()
	s := New([]FieldSpec{
		Field("count", Int),
		Field("ratio", Float),
		Field("when", Time),
		Field("ref", ObjectID),
	})

	doc, issues := s.Validate(core.Document{
		"count": float64(7), // decoded wire numbers arrive as float64
		"ratio": 3,
		"when":  now.Format(time.RFC3339),
		"ref":   oid.Hex(),
	})
	require.Empty(t, issues)
	assert.Equal(t, int64(7), doc["count"])
	assert.Equal(t, float64(3), doc["ratio"])
	assert.Equal(t, now, doc["when"].(time.Time).UTC())
	assert.Equal(t, oid, doc["ref"])
}

func TestValidateRejectsFractionalInt(t *testing.T) {
	s := New([]FieldSpec{Field("count", Int)})
	_, issues := s.Validate(core.Document{"count": 7.5})
	require.Len(t, issues, 1)
	assert.Equal(t, core.CodeInvalidType, issues[0].Code)
}

func TestValidateArrayElements(t *testing.T) {
	_, issues := testSchema().Validate(core.Document{
		"name": "widget",
		"tags": []interface{}{"ok", 42},
	})
	require.Len(t, issues, 1)
	assert.Equal(t, "tags.1", issues[0].Path)
	assert.Equal(t, core.CodeInvalidType, issues[0].Code)
}

func TestValidateNestedObject(t *testing.T) {
	s := New([]FieldSpec{
		Field("meta", Object, Nested(
			Field("owner", String, Required()),
			Field("weight", Float, Min(0)),
		)),
	})

	_, issues := s.Validate(core.Document{
		"meta": map[string]interface{}{"weight": -1},
	})
	require.Len(t, issues, 2)
	paths := map[string]bool{}
	for _, issue := range issues {
		paths[issue.Path] = true
	}
	assert.True(t, paths["meta.owner"], "nested required failure carries the dotted path")
	assert.True(t, paths["meta.weight"])
}

func TestValidateEnum(t *testing.T) {
	s := New([]FieldSpec{
		Field("status", String, Enum("open", "closed")),
	})
	_, issues := s.Validate(core.Document{"status": "pending"})
	require.Len(t, issues, 1)
	assert.Equal(t, core.CodeInvalidEnum, issues[0].Code)

	doc, issues := s.Validate(core.Document{"status": "open"})
	require.Empty(t, issues)
	assert.Equal(t, "open", doc["status"])
}

func TestValidateUnknownFieldPassesThrough(t *testing.T) {
	doc, issues := testSchema().Validate(core.Document{
		"name":  "widget",
		"extra": "kept",
	})
	require.Empty(t, issues)
	assert.Equal(t, "kept", doc["extra"])
}

func TestValidateStrictRejectsUnknownField(t *testing.T) {
	s := New([]FieldSpec{Field("name", String)}, Strict())
	_, issues := s.Validate(core.Document{"name": "x", "extra": 1})
	require.Len(t, issues, 1)
	assert.Equal(t, "extra", issues[0].Path)
}

func TestValidateIdentifierCarriedUnvalidated(t *testing.T) {
	doc, issues := testSchema().Validate(core.Document{
		"name": "widget",
		"_id":  "anything",
	})
	require.Empty(t, issues)
	assert.Equal(t, "anything", doc["_id"])
}

func TestValidateRefinement(t *testing.T) {
	s := New(
		[]FieldSpec{
			Field("min", Int),
			Field("max", Int),
		},
		Refine("min_below_max", func(doc core.Document) error {
			min, _ := doc["min"].(int64)
			max, _ := doc["max"].(int64)
			if min > max {
				return errors.New("min must not exceed max")
			}
			return nil
		}),
	)

	_, issues := s.Validate(core.Document{"min": 5, "max": 1})
	require.Len(t, issues, 1)
	assert.Equal(t, "min_below_max", issues[0].Path)
	assert.Equal(t, core.CodeCustom, issues[0].Code)
}

func TestValidatePartialReturnsOnlyInputFields(t *testing.T) {
	// A partial pass must never reintroduce unspecified fields, defaulted
	// or otherwise.
	doc, issues := testSchema().ValidatePartial(core.Document{"price": 1.5})
	require.Empty(t, issues)
	assert.Equal(t, core.Document{"price": 1.5}, doc)
}

func TestValidatePartialIgnoresRequired(t *testing.T) {
	doc, issues := testSchema().ValidatePartial(core.Document{"stock": 3})
	require.Empty(t, issues)
	assert.Equal(t, core.Document{"stock": int64(3)}, doc)
}

func TestValidatePartialStillChecksConstraints(t *testing.T) {
	_, issues := testSchema().ValidatePartial(core.Document{"stock": -1})
	require.Len(t, issues, 1)
	assert.Equal(t, "stock", issues[0].Path)
}

func TestDefaultsMap(t *testing.T) {
	s := testSchema()
	defaults := s.Defaults()
	require.Len(t, defaults, 2)
	assert.Equal(t, "general", defaults["category"].Resolve())
	assert.Equal(t, []interface{}{}, defaults["tags"].Resolve())
}

func TestDefaultsCachedPerSchema(t *testing.T) {
	s := testSchema()
	first := reflect.ValueOf(s.Defaults()).Pointer()
	second := reflect.ValueOf(s.Defaults()).Pointer()
	assert.Equal(t, first, second, "Defaults is derived once per schema")

	other := testSchema()
	assert.NotEqual(t, s.ID(), other.ID())
}

func TestSchemaPanicsOnDuplicateField(t *testing.T) {
	assert.Panics(t, func() {
		New([]FieldSpec{
			Field("a", String),
			Field("a", Int),
		})
	})
}

func TestSchemaPanicsOnReservedIdentifier(t *testing.T) {
	assert.Panics(t, func() {
		New([]FieldSpec{Field("_id", String)})
	})
}

func TestValidatePartialDottedPaths(t *testing.T) {
	s := New([]FieldSpec{
		Field("meta", Object, Nested(
			Field("owner", String, Required()),
			Field("weight", Float, Min(0)),
		)),
		Field("tags", Array, Elem(Field("", String))),
	})

	doc, issues := s.ValidatePartial(core.Document{"meta.weight": 2})
	require.Empty(t, issues)
	assert.Equal(t, core.Document{"meta.weight": float64(2)}, doc)

	_, issues = s.ValidatePartial(core.Document{"meta.owner": 1})
	require.Len(t, issues, 1)
	assert.Equal(t, "meta.owner", issues[0].Path)
	assert.Equal(t, core.CodeInvalidType, issues[0].Code)

	_, issues = s.ValidatePartial(core.Document{"meta.weight": -1})
	require.Len(t, issues, 1)
	assert.Equal(t, core.CodeTooSmall, issues[0].Code)

	doc, issues = s.ValidatePartial(core.Document{"tags.0": "first"})
	require.Empty(t, issues)
	assert.Equal(t, core.Document{"tags.0": "first"}, doc)

	_, issues = s.ValidatePartial(core.Document{"tags.0": 7})
	require.Len(t, issues, 1)
	assert.Equal(t, "tags.0", issues[0].Path)
}

func TestValidatePartialDottedPathUndeclaredPassesThrough(t *testing.T) {
	s := New([]FieldSpec{
		Field("meta", Object, Nested(Field("owner", String))),
	})

	doc, issues := s.ValidatePartial(core.Document{"meta.unknown": 1, "other.deep": 2})
	require.Empty(t, issues)
	assert.Equal(t, core.Document{"meta.unknown": 1, "other.deep": 2}, doc)
}
