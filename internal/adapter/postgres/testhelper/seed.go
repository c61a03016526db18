package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UniqueCollection returns a collection name no other test uses.
func UniqueCollection(prefix string) string {
	return prefix + "_" + uuid.New().String()[:8]
}

// SeedRecord inserts one public seed record with the given JSON body.
func SeedRecord(t *testing.T, pool *pgxpool.Pool, collection, id, body string) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO seed_records (scope, collection, record_id, body) VALUES ('data', $1, $2, $3::jsonb)`,
		collection, id, body,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRecord: %v", err)
	}
}

// CountRecords returns how many seed records a collection holds.
func CountRecords(t *testing.T, pool *pgxpool.Pool, collection string) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM seed_records WHERE collection = $1`, collection,
	).Scan(&n)
	if err != nil {
		t.Fatalf("testhelper: CountRecords: %v", err)
	}
	return n
}
