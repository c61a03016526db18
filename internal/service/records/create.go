package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Create stores the payload as a new record owned by the principal. Field
// rules may drop or assign payload fields before it is stored.
func (s *Service) Create(ctx context.Context, req Request) (domain.Record, error) {
	payload := req.Payload.Clone()

	if _, err := s.authorize(req, domain.ActionCreate, nil, payload); err != nil {
		return nil, fmt.Errorf("records.Create: %w", err)
	}

	rec, err := s.store.Add(req.Collection, payload, ownerOf(req))
	if err != nil {
		return nil, fmt.Errorf("records.Create: %w", err)
	}

	s.log.DebugContext(ctx, "record created",
		slog.String("collection", req.Collection),
		slog.String("record_id", rec.ID()))

	return rec, nil
}
