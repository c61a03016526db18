package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Register stores a new user and opens a session for it. Every body field
// except the password is kept on the user record; the password is stored
// only as a hash.
func (s *Service) Register(ctx context.Context, body domain.Record) (*AuthResult, error) {
	creds, err := credentialsFrom(body, s.identityField)
	if err != nil {
		return nil, err
	}

	existing, err := s.findByIdentity(creds.Identity)
	if err != nil {
		return nil, fmt.Errorf("auth.Register find user: %w", err)
	}
	if len(existing) > 0 {
		return nil, domain.Errorf(domain.ErrConflict, "A user with the same %s already exists", s.identityField)
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	data := body.WithoutSystemFields()
	delete(data, fieldPassword)
	data[s.identityField] = creds.Identity
	data[domain.FieldHashedPassword] = hash

	user, err := s.identities.Add(s.users, data, "")
	if err != nil {
		return nil, fmt.Errorf("auth.Register create user: %w", err)
	}

	result, err := s.openSession(user)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	s.log.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID()))

	return result, nil
}
