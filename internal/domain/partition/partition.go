// Package partition buckets unassigned attendees by interest signature.
package partition

import (
	"sort"
	"strings"

	"github.com/okian/mingle/internal/domain/model"
)

// signatureSeparator joins the sorted top interests into a bucket key.
const signatureSeparator = "_"

// Signature derives the bucket key from an attendee's interests: the
// first two labels, sorted lexicographically, joined with "_". Sorting
// makes {A,B} and {B,A} attendees land in the same bucket. Fewer than
// two interests use what is available; none at all yields "".
func Signature(interests []string) string {
	top := interests
	if len(top) > 2 {
		top = top[:2]
	}
	key := make([]string, len(top))
	copy(key, top)
	sort.Strings(key)
	return strings.Join(key, signatureSeparator)
}

// ByInterest partitions profiles into cohorts sharing the same interest
// signature. Every profile appears in exactly one bucket; an empty input
// produces an empty map.
func ByInterest(profiles []model.Profile) map[string][]model.Profile {
	buckets := make(map[string][]model.Profile, len(profiles))
	for _, p := range profiles {
		key := Signature(p.Interests)
		buckets[key] = append(buckets[key], p)
	}
	return buckets
}

// SortedKeys returns the bucket keys in lexicographic order so callers
// can visit buckets deterministically.
func SortedKeys(buckets map[string][]model.Profile) []string {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
