package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/heartmarshall/docstore/internal/domain"
)

var errInvalidToken = domain.Errorf(domain.ErrForbidden, "Invalid access token")

// Authenticate resolves an access token into a principal. The token's
// session must still exist and belong to the token's user.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		s.log.DebugContext(ctx, "token rejected", "error", err)
		return nil, errInvalidToken
	}

	session, err := s.identities.Get(s.sessions, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidToken
		}
		return nil, fmt.Errorf("auth.Authenticate get session: %w", err)
	}
	if owner, _ := session["userId"].(string); owner != claims.UserID {
		return nil, errInvalidToken
	}

	user, err := s.identities.Get(s.users, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidToken
		}
		return nil, fmt.Errorf("auth.Authenticate get user: %w", err)
	}

	return &domain.Principal{
		ID:        claims.UserID,
		SessionID: claims.SessionID,
		User:      publicUser(user),
	}, nil
}
