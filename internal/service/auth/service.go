// Package auth implements the users service: registration, login, logout
// and resolution of access tokens into principals. Users and sessions live
// in the protected store, which CRUD requests never reach.
package auth

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/docstore/internal/auth"
	"github.com/heartmarshall/docstore/internal/config"
	"github.com/heartmarshall/docstore/internal/domain"
)

// identityStore defines the protected store operations needed by the auth service.
type identityStore interface {
	Get(collection, id string) (domain.Record, error)
	Add(collection string, data domain.Record, ownerID string) (domain.Record, error)
	Delete(collection, id string) (domain.Deletion, error)
	Query(collection string, match domain.Record) ([]domain.Record, error)
}

// tokenManager defines the session token operations needed by the auth service.
type tokenManager interface {
	Issue(userID, sessionID string) (string, error)
	Validate(token string) (auth.SessionClaims, error)
}

// passwordHasher defines the password hashing operations needed by the auth service.
type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// Service implements auth operations.
type Service struct {
	log        *slog.Logger
	identities identityStore
	tokens     tokenManager
	hasher     passwordHasher

	identityField string
	users         string
	sessions      string
}

// NewService creates a new auth service instance.
func NewService(
	logger *slog.Logger,
	identities identityStore,
	tokens tokenManager,
	hasher passwordHasher,
	authCfg config.AuthConfig,
	storeCfg config.StoreConfig,
) *Service {
	return &Service{
		log:           logger.With("service", "auth"),
		identities:    identities,
		tokens:        tokens,
		hasher:        hasher,
		identityField: authCfg.IdentityField,
		users:         storeCfg.UsersCollection,
		sessions:      storeCfg.SessionsCollection,
	}
}

// openSession stores a session for user and returns the user with its
// access token.
func (s *Service) openSession(user domain.Record) (*AuthResult, error) {
	session, err := s.identities.Add(s.sessions, domain.Record{"userId": user.ID()}, user.ID())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokens.Issue(user.ID(), session.ID())
	if err != nil {
		_, _ = s.identities.Delete(s.sessions, session.ID())
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &AuthResult{
		User:        publicUser(user),
		SessionID:   session.ID(),
		AccessToken: token,
	}, nil
}

// findByIdentity returns the users whose identity field matches value.
// A protected store without a users collection has no users.
func (s *Service) findByIdentity(value string) ([]domain.Record, error) {
	users, err := s.identities.Query(s.users, domain.Record{s.identityField: value})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return users, err
}

func publicUser(user domain.Record) domain.Record {
	out := user.Clone()
	delete(out, domain.FieldHashedPassword)
	return out
}
