package query

import (
	"strings"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Page skips offset records and, when limit is set, keeps at most pageSize.
func Page(records []domain.Record, offset, pageSize int, limit bool) []domain.Record {
	if offset >= len(records) {
		return []domain.Record{}
	}
	records = records[offset:]
	if limit && pageSize < len(records) {
		records = records[:pageSize]
	}
	return records
}

// Distinct keeps the first record for every distinct combination of the
// given fields.
func Distinct(records []domain.Record, fields []string) []domain.Record {
	if len(fields) == 0 {
		return records
	}
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.Record, 0, len(records))
	parts := make([]string, len(fields))
	for _, r := range records {
		for i, f := range fields {
			parts[i] = domain.Stringify(r[f])
		}
		key := strings.Join(parts, "::")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Project returns a copy of rec holding only the listed fields that are
// present.
func Project(rec domain.Record, fields []string) domain.Record {
	if len(fields) == 0 {
		return rec
	}
	out := make(domain.Record, len(fields))
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}
