package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Delete removes a record and reports when it happened.
func (s *Service) Delete(ctx context.Context, req Request) (domain.Deletion, error) {
	existing, err := s.store.Get(req.Collection, req.ID)
	if err != nil {
		return domain.Deletion{}, fmt.Errorf("records.Delete: %w", err)
	}

	if _, err := s.authorize(req, domain.ActionDelete, existing, nil); err != nil {
		return domain.Deletion{}, fmt.Errorf("records.Delete: %w", err)
	}

	del, err := s.store.Delete(req.Collection, req.ID)
	if err != nil {
		return domain.Deletion{}, fmt.Errorf("records.Delete: %w", err)
	}

	s.log.DebugContext(ctx, "record deleted",
		slog.String("collection", req.Collection),
		slog.String("record_id", req.ID))

	return del, nil
}
