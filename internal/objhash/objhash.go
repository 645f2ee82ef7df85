// Package objhash provides the collision-resistant bucket hash used by the
// binary writer's flatten pass to find candidate objects for structural
// deduplication, grounded on arloliu-mebo's internal/hash.ID.
package objhash

import "github.com/cespare/xxhash/v2"

// Sum returns the xxHash64 of data, used only to bucket candidates for an
// exact structural-equality check; it is never relied upon alone to decide
// object identity.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
