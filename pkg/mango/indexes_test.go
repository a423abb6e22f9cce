package mango

import (
	"testing"

	"github.com/mango-db/mango/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestIndexName(t *testing.T) {
	tests := []struct {
		name string
		keys []IndexKey
		want string
	}{
		{"single ascending", []IndexKey{Key("name", 1)}, "name_1"},
		{"single descending", []IndexKey{Key("created_at", -1)}, "created_at_-1"},
		{"compound", []IndexKey{Key("name", 1), Key("age", -1)}, "name_1_age_-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IndexName(tt.keys))
		})
	}
}

func TestPlanIndexSyncCreatesMissing(t *testing.T) {
	declared := []core.IndexModel{
		{Keys: []core.IndexKey{{Field: "email", Direction: 1}}, Unique: true},
	}
	create, drop := planIndexSync(declared, nil)
	assert.Empty(t, drop)
	assert.Len(t, create, 1)
	assert.Equal(t, "email_1", create[0].Name, "derived name travels with the model")
	assert.True(t, create[0].Unique)
}

func TestPlanIndexSyncSkipsMatching(t *testing.T) {
	declared := []core.IndexModel{
		{Keys: []core.IndexKey{{Field: "email", Direction: 1}}},
	}
	existing := []core.IndexSpec{
		{Name: "email_1", Keys: []core.IndexKey{{Field: "email", Direction: 1}}},
	}
	create, drop := planIndexSync(declared, existing)
	assert.Empty(t, create)
	assert.Empty(t, drop)
}

func TestPlanIndexSyncRecreatesOnKeyDrift(t *testing.T) {
	declared := []core.IndexModel{
		{Name: "by_name", Keys: []core.IndexKey{{Field: "name", Direction: 1}, {Field: "age", Direction: 1}}},
	}
	existing := []core.IndexSpec{
		{Name: "by_name", Keys: []core.IndexKey{{Field: "name", Direction: 1}}},
	}
	create, drop := planIndexSync(declared, existing)
	assert.Equal(t, []string{"by_name"}, drop)
	assert.Len(t, create, 1)
}

func TestPlanIndexSyncLeavesUndeclaredAlone(t *testing.T) {
	existing := []core.IndexSpec{
		{Name: "legacy_1", Keys: []core.IndexKey{{Field: "legacy", Direction: 1}}},
	}
	create, drop := planIndexSync(nil, existing)
	assert.Empty(t, create)
	assert.Empty(t, drop)
}

func TestPlanIndexSyncNeverTouchesIDIndex(t *testing.T) {
	declared := []core.IndexModel{
		{Name: "_id_", Keys: []core.IndexKey{{Field: "_id", Direction: 1}}},
	}
	existing := []core.IndexSpec{
		{Name: "_id_", Keys: []core.IndexKey{{Field: "_id", Direction: -1}}},
	}
	create, drop := planIndexSync(declared, existing)
	assert.Empty(t, create)
	assert.Empty(t, drop)
}
