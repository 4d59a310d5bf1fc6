package manifest

import (
	"sort"

	"github.com/samber/lo"
)

// sortedKeys keeps table iteration deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
