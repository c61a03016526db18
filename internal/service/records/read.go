package records

import (
	"context"
	"fmt"

	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/internal/query"
)

// Collections returns the names of all public collections.
func (s *Service) Collections(ctx context.Context) []string {
	return s.store.ListCollections()
}

// Read returns one record after the read rule and field redaction. Only
// select and load apply to single-record reads.
func (s *Service) Read(ctx context.Context, req Request) (domain.Record, error) {
	rec, err := s.store.Get(req.Collection, req.ID)
	if err != nil {
		return nil, fmt.Errorf("records.Read: %w", err)
	}

	access, err := s.authorize(req, domain.ActionRead, rec, nil)
	if err != nil {
		return nil, fmt.Errorf("records.Read: %w", err)
	}
	if err := access.Redact(rec); err != nil {
		return nil, fmt.Errorf("records.Read redact: %w", err)
	}

	out, err := s.query.Shape(ctx, rec, req.Params)
	if err != nil {
		return nil, fmt.Errorf("records.Read: %w", err)
	}
	return out, nil
}

// List runs the query pipeline over a collection. Records are redacted
// before filtering so hidden fields cannot be probed with where or sortBy.
func (s *Service) List(ctx context.Context, req Request) (query.Result, error) {
	recs, err := s.store.List(req.Collection)
	if err != nil {
		return query.Result{}, fmt.Errorf("records.List: %w", err)
	}

	// No single record backs a list read; rules see an empty one, so
	// ownership checks deny instead of faulting.
	access, err := s.authorize(req, domain.ActionRead, domain.Record{}, nil)
	if err != nil {
		return query.Result{}, fmt.Errorf("records.List: %w", err)
	}
	if err := access.RedactAll(recs); err != nil {
		return query.Result{}, fmt.Errorf("records.List redact: %w", err)
	}

	res, err := s.query.Run(ctx, recs, req.Params)
	if err != nil {
		return query.Result{}, fmt.Errorf("records.List: %w", err)
	}
	return res, nil
}
