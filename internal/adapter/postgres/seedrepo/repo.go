// Package seedrepo keeps seed data in PostgreSQL: records of both stores in
// seed_records and top-level jsonstore keys in seed_jsonstore.
package seedrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/docstore/internal/adapter/postgres"
	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/internal/seed"
)

const (
	scopeProtected = "protected"
	scopePublic    = "data"

	recordsTable   = "seed_records"
	jsonstoreTable = "seed_jsonstore"
)

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repo reads and writes seed data.
type Repo struct {
	pool *pgxpool.Pool
	tx   txManager
}

// New creates a seed repository.
func New(pool *pgxpool.Pool, tx txManager) *Repo {
	return &Repo{pool: pool, tx: tx}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

// Load returns every stored seed record and jsonstore key.
func (r *Repo) Load(ctx context.Context) (*seed.Data, error) {
	d := &seed.Data{Protected: domain.Snapshot{}, Public: domain.Snapshot{}}

	if err := r.loadRecords(ctx, d); err != nil {
		return nil, err
	}
	if err := r.loadJSONStore(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repo) loadRecords(ctx context.Context, d *seed.Data) error {
	sql, args, err := builder().
		Select("scope", "collection", "record_id", "body").
		From(recordsTable).
		OrderBy("scope", "collection", "record_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("seedrepo.Load: build: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "seed records", recordsTable)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			scope, collection, id string
			body                  []byte
		)
		if err := rows.Scan(&scope, &collection, &id, &body); err != nil {
			return postgres.MapError(err, "seed record", key(scope, collection, id))
		}

		rec, err := decodeRecord(body)
		if err != nil {
			return fmt.Errorf("seedrepo.Load: %s: %w", key(scope, collection, id), err)
		}
		rec[domain.FieldID] = id

		target := d.Public
		if scope == scopeProtected {
			target = d.Protected
		}
		coll, ok := target[collection]
		if !ok {
			coll = make(map[string]domain.Record)
			target[collection] = coll
		}
		coll[id] = rec
	}
	if err := rows.Err(); err != nil {
		return postgres.MapError(err, "seed records", recordsTable)
	}
	return nil
}

func (r *Repo) loadJSONStore(ctx context.Context, d *seed.Data) error {
	sql, args, err := builder().
		Select("key", "value").
		From(jsonstoreTable).
		OrderBy("key").
		ToSql()
	if err != nil {
		return fmt.Errorf("seedrepo.Load: build: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "seed jsonstore", jsonstoreTable)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			k   string
			raw []byte
		)
		if err := rows.Scan(&k, &raw); err != nil {
			return postgres.MapError(err, "seed jsonstore", k)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("seedrepo.Load: jsonstore %s: %w", k, err)
		}
		if d.JSONStore == nil {
			d.JSONStore = make(map[string]any)
		}
		d.JSONStore[k] = domain.Normalize(v)
	}
	if err := rows.Err(); err != nil {
		return postgres.MapError(err, "seed jsonstore", jsonstoreTable)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Write
// ---------------------------------------------------------------------------

// Import upserts every record and jsonstore key of d in one transaction
// and returns how many rows were written. Records keep their owner and
// timestamps; the id lives in record_id.
func (r *Repo) Import(ctx context.Context, d *seed.Data) (int, error) {
	written := 0
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		for _, scope := range []struct {
			name string
			snap domain.Snapshot
		}{{scopeProtected, d.Protected}, {scopePublic, d.Public}} {
			for collection, records := range scope.snap {
				for id, rec := range records {
					stored := rec.Clone()
					delete(stored, domain.FieldID)
					body, err := json.Marshal(stored)
					if err != nil {
						return fmt.Errorf("encode %s: %w", key(scope.name, collection, id), err)
					}
					sql, args, err := builder().
						Insert(recordsTable).
						Columns("scope", "collection", "record_id", "body").
						Values(scope.name, collection, id, body).
						Suffix("ON CONFLICT (scope, collection, record_id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()").
						ToSql()
					if err != nil {
						return fmt.Errorf("build: %w", err)
					}
					if _, err := q.Exec(ctx, sql, args...); err != nil {
						return postgres.MapError(err, "seed record", key(scope.name, collection, id))
					}
					written++
				}
			}
		}

		for k, v := range d.JSONStore {
			raw, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode jsonstore %s: %w", k, err)
			}
			sql, args, err := builder().
				Insert(jsonstoreTable).
				Columns("key", "value").
				Values(k, raw).
				Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()").
				ToSql()
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}
			if _, err := q.Exec(ctx, sql, args...); err != nil {
				return postgres.MapError(err, "seed jsonstore", k)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seedrepo.Import: %w", err)
	}
	return written, nil
}

// Clear removes all seed data.
func (r *Repo) Clear(ctx context.Context) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		for _, table := range []string{recordsTable, jsonstoreTable} {
			sql, args, err := builder().Delete(table).ToSql()
			if err != nil {
				return fmt.Errorf("seedrepo.Clear: build: %w", err)
			}
			if _, err := q.Exec(ctx, sql, args...); err != nil {
				return postgres.MapError(err, "seed table", table)
			}
		}
		return nil
	})
}

// Replace clears all seed data and imports d in one transaction.
func (r *Repo) Replace(ctx context.Context, d *seed.Data) (int, error) {
	written := 0
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := r.Clear(ctx); err != nil {
			return err
		}
		n, err := r.Import(ctx, d)
		written = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("seedrepo.Replace: %w", err)
	}
	return written, nil
}

func decodeRecord(body []byte) (domain.Record, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	rec, ok := domain.ToRecord(v)
	if !ok {
		return nil, fmt.Errorf("body is not an object")
	}
	return rec, nil
}

func key(scope, collection, id string) string {
	return scope + "/" + collection + "/" + id
}
