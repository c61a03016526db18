package query

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Operator is the comparison of a where clause.
type Operator string

const (
	OpLTE  Operator = "<="
	OpLT   Operator = "<"
	OpGTE  Operator = ">="
	OpGT   Operator = ">"
	OpEQ   Operator = "="
	OpLike Operator = "like"
	OpIn   Operator = "in"
)

// Connective joins all clauses of one filter.
type Connective int

const (
	And Connective = iota
	Or
)

// Clause is a single `field OP literal` comparison.
type Clause struct {
	Field string
	Op    Operator
	// Value is the decoded JSON literal; a []any for OpIn.
	Value any
}

// Filter is a parsed where expression. Clauses are joined by one
// connective; mixing and/or in one expression is not supported.
type Filter struct {
	Connective Connective
	Clauses    []Clause
}

const whereSyntaxMessage = "Could not parse WHERE clause, check your syntax."

var (
	// The field is matched lazily, so the first operator in the clause wins.
	clausePattern = regexp.MustCompile(`(?i)^(.+?)(<=|<|>=|>|=| like | in )(.+?)$`)
	andPattern    = regexp.MustCompile(`(?i) and `)
	orPattern     = regexp.MustCompile(`(?i) or `)
	inListPattern = regexp.MustCompile(`\((.+?)\)`)
)

// ParseWhere parses a where expression such as
// `age>=18 and name like "an"` or `status in ("a","b")`.
func ParseWhere(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, syntaxError()
	}

	f := &Filter{Connective: And}
	parts := []string{expr}
	switch {
	case andPattern.MatchString(expr):
		parts = andPattern.Split(expr, -1)
	case orPattern.MatchString(expr):
		f.Connective = Or
		parts = orPattern.Split(expr, -1)
	}

	for _, part := range parts {
		c, err := parseClause(part)
		if err != nil {
			return nil, err
		}
		f.Clauses = append(f.Clauses, c)
	}
	return f, nil
}

func parseClause(s string) (Clause, error) {
	m := clausePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Clause{}, syntaxError()
	}

	field := strings.TrimSpace(m[1])
	op := Operator(strings.ToLower(strings.TrimSpace(m[2])))
	raw := strings.TrimSpace(m[3])
	if field == "" || raw == "" {
		return Clause{}, syntaxError()
	}

	var value any
	if op == OpIn {
		list := inListPattern.FindStringSubmatch(raw)
		if list == nil {
			return Clause{}, syntaxError()
		}
		var items []any
		if err := json.Unmarshal([]byte("["+list[1]+"]"), &items); err != nil {
			return Clause{}, syntaxError()
		}
		value = items
	} else if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return Clause{}, syntaxError()
	}

	return Clause{Field: field, Op: op, Value: value}, nil
}

func syntaxError() error {
	return domain.Errorf(domain.ErrBadRequest, whereSyntaxMessage)
}

// Match reports whether rec satisfies the filter.
func (f *Filter) Match(rec domain.Record) bool {
	if f == nil || len(f.Clauses) == 0 {
		return true
	}
	fold := cases.Fold()
	for _, c := range f.Clauses {
		ok := c.match(fold, rec)
		if f.Connective == Or && ok {
			return true
		}
		if f.Connective == And && !ok {
			return false
		}
	}
	return f.Connective == And
}

// Apply returns the records matching the filter, preserving order.
func (f *Filter) Apply(records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (c Clause) match(fold cases.Caser, rec domain.Record) bool {
	got := rec[c.Field]

	switch c.Op {
	case OpEQ:
		return domain.LooseEqual(got, c.Value)
	case OpLike:
		gs, gok := got.(string)
		ws, wok := c.Value.(string)
		return gok && wok && strings.Contains(fold.String(gs), fold.String(ws))
	case OpIn:
		items, _ := c.Value.([]any)
		for _, it := range items {
			if domain.StrictEqual(got, it) {
				return true
			}
		}
		return false
	}

	cmp, ok := domain.Compare(got, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpLT:
		return cmp < 0
	case OpLTE:
		return cmp <= 0
	case OpGT:
		return cmp > 0
	case OpGTE:
		return cmp >= 0
	default:
		return false
	}
}
