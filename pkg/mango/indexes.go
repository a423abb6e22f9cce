package mango

import (
	"fmt"
	"strings"

	"github.com/mango-db/mango/internal/core"
)

// IndexModel declares an index.
type IndexModel = core.IndexModel

// IndexKey is one component of an index key specification.
type IndexKey = core.IndexKey

// Key builds an index key component.
func Key(field string, direction int) IndexKey {
	return IndexKey{Field: field, Direction: direction}
}

// IndexName derives the conventional name for an index key specification:
// field and direction pairs joined by underscores, e.g. "name_1_age_-1".
// Used whenever an IndexModel omits an explicit name.
func IndexName(keys []IndexKey) string {
	parts := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		parts = append(parts, key.Field, fmt.Sprintf("%d", key.Direction))
	}
	return strings.Join(parts, "_")
}

// idIndexName is the store's built-in identifier index; sync never touches
// it.
const idIndexName = "_id_"

// planIndexSync diffs declared indexes against the store's by name. A
// declared index that is missing is created; one whose key specification
// drifted is dropped and recreated; existing indexes the declaration does
// not mention are left alone.
func planIndexSync(declared []core.IndexModel, existing []core.IndexSpec) (create []core.IndexModel, drop []string) {
	byName := make(map[string]core.IndexSpec, len(existing))
	for _, spec := range existing {
		byName[spec.Name] = spec
	}

	for _, model := range declared {
		named := model
		if named.Name == "" {
			named.Name = IndexName(named.Keys)
		}
		if named.Name == idIndexName {
			continue
		}

		current, present := byName[named.Name]
		if !present {
			create = append(create, named)
			continue
		}
		if !sameKeys(named.Keys, current.Keys) {
			drop = append(drop, named.Name)
			create = append(create, named)
		}
	}
	return create, drop
}

func sameKeys(a []core.IndexKey, b []core.IndexKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Field != b[i].Field || a[i].Direction != b[i].Direction {
			return false
		}
	}
	return true
}
