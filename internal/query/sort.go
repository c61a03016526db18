package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/heartmarshall/docstore/internal/domain"
)

// SortKey is one `field [desc]` specifier of sortBy.
type SortKey struct {
	Field string
	Desc  bool
}

// ParseSort parses a comma-separated sortBy value. Empty specifiers are
// skipped; any direction word other than "desc" sorts ascending.
func ParseSort(s string) []SortKey {
	var keys []SortKey
	for _, spec := range strings.Split(s, ",") {
		words := strings.Fields(spec)
		if len(words) == 0 {
			continue
		}
		k := SortKey{Field: words[0]}
		if len(words) > 1 && strings.EqualFold(words[1], "desc") {
			k.Desc = true
		}
		keys = append(keys, k)
	}
	return keys
}

// Sort orders records in place. The first key has the highest priority:
// keys are applied last to first with a stable sort.
func Sort(records []domain.Record, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	coll := collate.New(language.Und)
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		sort.SliceStable(records, func(a, b int) bool {
			c := compareForSort(coll, records[a][k.Field], records[b][k.Field])
			if k.Desc {
				return c > 0
			}
			return c < 0
		})
	}
}

// compareForSort compares numbers numerically and everything else by
// collation of its string form.
func compareForSort(coll *collate.Collator, a, b any) int {
	fa, aok := domain.ToNumber(a)
	fb, bok := domain.ToNumber(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return coll.CompareString(domain.Stringify(a), domain.Stringify(b))
}
