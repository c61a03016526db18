package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/docstore/internal/domain"
)

var errLoginMismatch = domain.Errorf(domain.ErrForbidden, "Login or password don't match")

// Login checks the credentials in body and opens a new session. The
// identity must match exactly one user.
func (s *Service) Login(ctx context.Context, body domain.Record) (*AuthResult, error) {
	creds, err := credentialsFrom(body, s.identityField)
	if err != nil {
		return nil, err
	}

	users, err := s.findByIdentity(creds.Identity)
	if err != nil {
		return nil, fmt.Errorf("auth.Login find user: %w", err)
	}
	if len(users) != 1 {
		return nil, errLoginMismatch
	}

	user := users[0]
	hash, _ := user[domain.FieldHashedPassword].(string)
	if hash == "" || !s.hasher.Compare(hash, creds.Password) {
		return nil, errLoginMismatch
	}

	result, err := s.openSession(user)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	s.log.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID()))

	return result, nil
}
