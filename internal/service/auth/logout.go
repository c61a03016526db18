package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Logout deletes the session the principal authenticated with.
func (s *Service) Logout(ctx context.Context, p *domain.Principal) error {
	if p == nil || p.SessionID == "" {
		return domain.Errorf(domain.ErrForbidden, "User session does not exist")
	}

	if _, err := s.identities.Delete(s.sessions, p.SessionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Errorf(domain.ErrForbidden, "User session does not exist")
		}
		return fmt.Errorf("auth.Logout: %w", err)
	}

	s.log.InfoContext(ctx, "user logged out",
		slog.String("user_id", p.ID))

	return nil
}

// Me returns the principal's user record without its password hash.
func (s *Service) Me(ctx context.Context, p *domain.Principal) (domain.Record, error) {
	if p == nil {
		return nil, domain.ErrUnauthorized
	}
	return p.Value(), nil
}
