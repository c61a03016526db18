package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/docstore/internal/domain"
)

func TestParseWhere(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		want *Filter
	}{
		{
			name: "single equality",
			expr: `name="carbonara"`,
			want: &Filter{Connective: And, Clauses: []Clause{{Field: "name", Op: OpEQ, Value: "carbonara"}}},
		},
		{
			name: "spaces around operator",
			expr: `age >= 18`,
			want: &Filter{Connective: And, Clauses: []Clause{{Field: "age", Op: OpGTE, Value: 18.0}}},
		},
		{
			name: "and",
			expr: `a<1 and b>2`,
			want: &Filter{Connective: And, Clauses: []Clause{
				{Field: "a", Op: OpLT, Value: 1.0},
				{Field: "b", Op: OpGT, Value: 2.0},
			}},
		},
		{
			name: "or is case-insensitive",
			expr: `a<=1 OR b=null`,
			want: &Filter{Connective: Or, Clauses: []Clause{
				{Field: "a", Op: OpLTE, Value: 1.0},
				{Field: "b", Op: OpEQ, Value: nil},
			}},
		},
		{
			name: "like",
			expr: `title LIKE "pie"`,
			want: &Filter{Connective: And, Clauses: []Clause{{Field: "title", Op: OpLike, Value: "pie"}}},
		},
		{
			name: "in",
			expr: `status in ("a", 2)`,
			want: &Filter{Connective: And, Clauses: []Clause{{Field: "status", Op: OpIn, Value: []any{"a", 2.0}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseWhere(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWhere_Malformed(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{
		"",
		"no operator here",
		`name=carbonara`,
		`a=1 and b`,
		`x in "a"`,
		`=1`,
	} {
		_, err := ParseWhere(expr)
		require.Error(t, err, expr)
		assert.ErrorIs(t, err, domain.ErrBadRequest, expr)
		assert.Equal(t, "Could not parse WHERE clause, check your syntax.", domain.Message(err), expr)
	}
}

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	rec := domain.Record{"name": "Apple Pie", "price": int64(12), "code": "7", "tags": []any{"x"}}

	tests := []struct {
		expr string
		want bool
	}{
		{`price=12`, true},
		{`price="12"`, true},
		{`code=7`, true},
		{`price<12`, false},
		{`price<=12`, true},
		{`price>11.5`, true},
		{`name like "apple"`, true},
		{`name like "cake"`, false},
		{`price like "1"`, false},
		{`price in (1, 12)`, true},
		{`code in (7)`, false},
		{`code in ("7")`, true},
		{`missing=null`, true},
		{`missing>1`, false},
		{`price=1 or name like "pie"`, true},
		{`price=12 and name="Apple"`, false},
	}

	for _, tt := range tests {
		f, err := ParseWhere(tt.expr)
		require.NoError(t, err, tt.expr)
		assert.Equal(t, tt.want, f.Match(rec), tt.expr)
	}
}

func TestFilter_ApplyKeepsOrder(t *testing.T) {
	t.Parallel()

	recs := []domain.Record{{"n": int64(3)}, {"n": int64(1)}, {"n": int64(2)}, {"n": int64(0)}}
	f, err := ParseWhere("n>0")
	require.NoError(t, err)

	got := f.Apply(recs)
	require.Len(t, got, 3)
	assert.Equal(t, []any{int64(3), int64(1), int64(2)}, []any{got[0]["n"], got[1]["n"], got[2]["n"]})

	// Every kept record satisfies the predicate and none is lost.
	for _, r := range recs {
		kept := false
		for _, g := range got {
			if g["n"] == r["n"] {
				kept = true
			}
		}
		assert.Equal(t, f.Match(r), kept)
	}
}
