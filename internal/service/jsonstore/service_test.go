package jsonstore

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/docstore/internal/domain"
)

func newTestService(opts ...Option) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ids := []string{"k1", "k2", "k3"}
	gen := func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	return NewService(logger, append([]Option{WithIDGenerator(gen)}, opts...)...)
}

func TestService_PostAndGet(t *testing.T) {
	t.Parallel()

	s := newTestService()
	ctx := context.Background()

	rec, err := s.Post(ctx, []string{"furniture", "catalog"}, domain.Record{"make": "Table"})
	require.NoError(t, err)
	assert.Equal(t, domain.Record{"make": "Table", "_id": "k1"}, rec)

	assert.Equal(t, map[string]any{"make": "Table", "_id": "k1"}, s.Get(ctx, []string{"furniture", "catalog", "k1"}))
	assert.Equal(t, "Table", s.Get(ctx, []string{"furniture", "catalog", "k1", "make"}))
	assert.Nil(t, s.Get(ctx, []string{"furniture", "missing"}))
	assert.Nil(t, s.Get(ctx, []string{"furniture", "catalog", "k1", "make", "deeper"}))

	// Returned values are copies.
	got := s.Get(ctx, []string{"furniture", "catalog", "k1"}).(map[string]any)
	got["make"] = "Chair"
	assert.Equal(t, "Table", s.Get(ctx, []string{"furniture", "catalog", "k1", "make"}))
}

func TestService_PostThroughScalar(t *testing.T) {
	t.Parallel()

	s := newTestService(WithSeed(map[string]any{"a": map[string]any{"b": 1}}))

	_, err := s.Post(context.Background(), []string{"a", "b"}, domain.Record{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestService_Put(t *testing.T) {
	t.Parallel()

	s := newTestService(WithSeed(map[string]any{"c": map[string]any{"x": map[string]any{"v": 1}}}))
	ctx := context.Background()

	out, err := s.Put(ctx, []string{"c", "x"}, map[string]any{"w": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"w": int64(2)}, out)

	// Put never creates.
	out, err = s.Put(ctx, []string{"c", "y"}, map[string]any{"w": 2})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Nil(t, s.Get(ctx, []string{"c", "y"}))
}

func TestService_Patch(t *testing.T) {
	t.Parallel()

	s := newTestService(WithSeed(map[string]any{"c": map[string]any{"x": map[string]any{"v": 1, "keep": true}}}))
	ctx := context.Background()

	out, err := s.Patch(ctx, []string{"c", "x"}, domain.Record{"v": int64(5)})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": int64(5), "keep": true}, out)

	out, err = s.Patch(ctx, []string{"c", "nope"}, domain.Record{"v": 1})
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = s.Patch(ctx, []string{"c", "x", "v"}, domain.Record{"v": 1})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	s := newTestService(WithSeed(map[string]any{"c": map[string]any{"x": "gone"}}))
	ctx := context.Background()

	out, err := s.Delete(ctx, []string{"c", "x"})
	require.NoError(t, err)
	assert.Equal(t, "gone", out)
	assert.Nil(t, s.Get(ctx, []string{"c", "x"}))

	out, err = s.Delete(ctx, []string{"c", "x"})
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = s.Delete(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestService_Snapshot(t *testing.T) {
	t.Parallel()

	s := newTestService(WithSeed(map[string]any{"c": map[string]any{"x": 1}}))
	snap := s.Snapshot()
	snap["c"].(map[string]any)["x"] = 2

	assert.Equal(t, int64(1), s.Get(context.Background(), []string{"c", "x"}))
}
