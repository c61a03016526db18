package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

type stubQuerier struct{ Querier }

type stubTx struct{ pgx.Tx }

func TestQuerierFromCtx(t *testing.T) {
	t.Parallel()

	fallback := stubQuerier{}
	ctx := context.Background()

	assert.False(t, InTx(ctx))
	assert.Equal(t, fallback, QuerierFromCtx(ctx, fallback))

	tx := stubTx{}
	txCtx := withTx(ctx, tx)
	assert.True(t, InTx(txCtx))
	assert.Equal(t, tx, QuerierFromCtx(txCtx, fallback))
}
