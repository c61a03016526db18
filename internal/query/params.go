// Package query implements the collection query pipeline: filter, sort,
// paging, distinct, count, projection and relation loading.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is used when pageSize is present but not a positive number.
const DefaultPageSize = 10

// Params is a parsed set of query-string options.
type Params struct {
	Where    *Filter
	Sort     []SortKey
	Offset   int
	PageSize int
	// HasPageSize is set when the pageSize parameter was present. Without
	// it, paging only skips Offset records.
	HasPageSize bool
	Distinct    []string
	Count       bool
	Select      []string
	Load        []Relation
}

// IsListQuery reports whether the parameters force a collection query
// even when a record id is addressed.
func (p Params) IsListQuery() bool {
	return p.Where != nil
}

// ParseParams reads query options from a request's query string.
// Only a malformed where or load value is an error; other malformed
// values fall back to defaults.
func ParseParams(values url.Values, defaultPageSize int) (Params, error) {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}

	var p Params

	if values.Has("where") {
		f, err := ParseWhere(values.Get("where"))
		if err != nil {
			return Params{}, err
		}
		p.Where = f
	}

	if values.Has("sortBy") {
		p.Sort = ParseSort(values.Get("sortBy"))
	}

	if values.Has("offset") {
		p.Offset = nonNegative(values.Get("offset"), 0)
	}

	if values.Has("pageSize") {
		p.HasPageSize = true
		p.PageSize = positive(values.Get("pageSize"), defaultPageSize)
	}

	if values.Has("distinct") {
		p.Distinct = splitList(values.Get("distinct"))
	}

	p.Count = values.Has("count")

	if values.Has("select") {
		p.Select = splitList(values.Get("select"))
	}

	if values.Has("load") {
		rels, err := ParseRelations(values.Get("load"))
		if err != nil {
			return Params{}, err
		}
		p.Load = rels
	}

	return p, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNegative(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func positive(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
