package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/docstore/internal/adapter/postgres"
	"github.com/heartmarshall/docstore/internal/adapter/postgres/seedrepo"
	"github.com/heartmarshall/docstore/internal/config"
	"github.com/heartmarshall/docstore/internal/seed"
)

type passwordHasher interface {
	Hash(password string) (string, error)
}

// LoadSeed collects the initial store contents: the seed file, then the
// database seed on top of it when pool is non-nil. Plaintext seed
// passwords are hashed before the data is returned.
func LoadSeed(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, hasher passwordHasher) (*seed.Data, error) {
	data := &seed.Data{}

	if cfg.Store.SeedPath != "" {
		fromFile, err := seed.LoadFile(cfg.Store.SeedPath)
		if err != nil {
			return nil, err
		}
		data.Merge(fromFile)
	}

	if pool != nil {
		fromDB, err := seedrepo.New(pool, postgres.NewTxManager(pool)).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load database seed: %w", err)
		}
		data.Merge(fromDB)
	}

	if _, err := data.HashPasswords(hasher, cfg.Store.UsersCollection); err != nil {
		return nil, err
	}
	return data, nil
}
