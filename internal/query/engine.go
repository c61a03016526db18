package query

import (
	"context"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Result is the outcome of a collection query: either the shaped records
// or, when Counted is set, only their number.
type Result struct {
	Records []domain.Record
	Count   int
	Counted bool
}

// Value returns what is sent to the client.
func (r Result) Value() any {
	if r.Counted {
		return r.Count
	}
	if r.Records == nil {
		return []domain.Record{}
	}
	return r.Records
}

// Engine runs query pipelines over records read from the store.
type Engine struct {
	sources Sources
}

// NewEngine creates an Engine that resolves relations from src.
func NewEngine(src Sources) *Engine {
	return &Engine{sources: src}
}

// NewLoader returns a fresh per-request relation loader.
func (e *Engine) NewLoader() *Loader {
	return NewLoader(e.sources)
}

// Run applies the pipeline to records in the order filter, sort, offset,
// pageSize, distinct, count, select, load. records is consumed.
func (e *Engine) Run(ctx context.Context, records []domain.Record, p Params) (Result, error) {
	if p.Where != nil {
		records = p.Where.Apply(records)
	}
	Sort(records, p.Sort)
	records = Page(records, p.Offset, p.PageSize, p.HasPageSize)
	records = Distinct(records, p.Distinct)

	if p.Count {
		return Result{Count: len(records), Counted: true}, nil
	}

	if len(p.Select) > 0 {
		for i, r := range records {
			records[i] = Project(r, p.Select)
		}
	}

	if err := e.load(ctx, records, p.Load); err != nil {
		return Result{}, err
	}
	return Result{Records: records}, nil
}

// Shape applies select and load to a single record.
func (e *Engine) Shape(ctx context.Context, rec domain.Record, p Params) (domain.Record, error) {
	rec = Project(rec, p.Select)
	records := []domain.Record{rec}
	if err := e.load(ctx, records, p.Load); err != nil {
		return nil, err
	}
	return records[0], nil
}

func (e *Engine) load(ctx context.Context, records []domain.Record, rels []Relation) error {
	if len(rels) == 0 || len(records) == 0 {
		return nil
	}
	loader := LoaderFromContext(ctx)
	if loader == nil {
		loader = e.NewLoader()
	}
	for _, rel := range rels {
		if err := loader.Attach(ctx, records, rel); err != nil {
			return err
		}
	}
	return nil
}
