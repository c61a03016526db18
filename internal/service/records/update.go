package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Replace overwrites a record with the payload, keeping its system fields.
func (s *Service) Replace(ctx context.Context, req Request) (domain.Record, error) {
	payload, err := s.authorizeUpdate(req)
	if err != nil {
		return nil, fmt.Errorf("records.Replace: %w", err)
	}

	rec, err := s.store.Set(req.Collection, req.ID, payload)
	if err != nil {
		return nil, fmt.Errorf("records.Replace: %w", err)
	}

	s.log.DebugContext(ctx, "record replaced",
		slog.String("collection", req.Collection),
		slog.String("record_id", req.ID))

	return rec, nil
}

// Merge shallow-merges the payload onto a record.
func (s *Service) Merge(ctx context.Context, req Request) (domain.Record, error) {
	payload, err := s.authorizeUpdate(req)
	if err != nil {
		return nil, fmt.Errorf("records.Merge: %w", err)
	}

	rec, err := s.store.Merge(req.Collection, req.ID, payload)
	if err != nil {
		return nil, fmt.Errorf("records.Merge: %w", err)
	}

	s.log.DebugContext(ctx, "record merged",
		slog.String("collection", req.Collection),
		slog.String("record_id", req.ID))

	return rec, nil
}

// authorizeUpdate checks the update rule against the stored record and
// returns the payload filtered by the field rules.
func (s *Service) authorizeUpdate(req Request) (domain.Record, error) {
	existing, err := s.store.Get(req.Collection, req.ID)
	if err != nil {
		return nil, err
	}

	payload := req.Payload.Clone()
	if _, err := s.authorize(req, domain.ActionUpdate, existing, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
