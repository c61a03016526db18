package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/docstore/internal/domain"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

// sequenceIDs returns a generator yielding ids in order, then repeating the last.
func sequenceIDs(ids ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[i]
		if i < len(ids)-1 {
			i++
		}
		return id
	}
}

// ---------------------------------------------------------------------------
// Add / Get
// ---------------------------------------------------------------------------

func TestAdd_AssignsSystemFields(t *testing.T) {
	t.Parallel()

	s := New(WithClock(fixedClock(1000)), WithIDGenerator(sequenceIDs("r1")))

	rec, err := s.Add("recipes", domain.Record{
		"name":           "carbonara",
		"_id":            "forged",
		"_ownerId":       "forged",
		"_createdOn":     int64(1),
		"_updatedOn":     int64(1),
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, domain.Record{
		"name":       "carbonara",
		"_id":        "r1",
		"_ownerId":   "user-1",
		"_createdOn": int64(1000),
	}, rec)
}

func TestAdd_WithoutOwner(t *testing.T) {
	t.Parallel()

	s := New()
	rec, err := s.Add("users", domain.Record{"email": "a@b.c"}, "")
	require.NoError(t, err)

	assert.NotContains(t, rec, domain.FieldOwnerID)
	assert.NotEmpty(t, rec.ID())
}

func TestAdd_RetriesOnCollision(t *testing.T) {
	t.Parallel()

	s := New(WithIDGenerator(sequenceIDs("dup", "dup", "fresh")))

	first, err := s.Add("c", domain.Record{}, "")
	require.NoError(t, err)
	second, err := s.Add("c", domain.Record{}, "")
	require.NoError(t, err)

	assert.Equal(t, "dup", first.ID())
	assert.Equal(t, "fresh", second.ID())
}

func TestAdd_ConcurrentIDsAreUnique(t *testing.T) {
	t.Parallel()

	s := New()
	const n = 200

	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := s.Add("items", domain.Record{"i": int64(i)}, "")
			if err != nil {
				t.Error(err)
				return
			}
			ids <- rec.ID()
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	all, err := s.List("items")
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	s := New(WithSeed(domain.Snapshot{"recipes": {}}))

	_, err := s.Get("missing", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Get("recipes", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.List("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_EmptyCollectionExists(t *testing.T) {
	t.Parallel()

	s := New(WithSeed(domain.Snapshot{"sessions": {}}))

	recs, err := s.List("sessions")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestList_InsertionOrder(t *testing.T) {
	t.Parallel()

	s := New(WithIDGenerator(sequenceIDs("c", "a", "b")))
	for i := 0; i < 3; i++ {
		_, err := s.Add("c", domain.Record{"n": int64(i)}, "")
		require.NoError(t, err)
	}

	recs, err := s.List("c")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{recs[0].ID(), recs[1].ID(), recs[2].ID()})
}

func TestWithSeed_OrdersByCreatedOn(t *testing.T) {
	t.Parallel()

	s := New(WithSeed(domain.Snapshot{"recipes": {
		"b": {"_createdOn": int64(2)},
		"a": {"_createdOn": int64(3)},
		"c": {"_createdOn": int64(1)},
	}}))

	recs, err := s.List("recipes")
	require.NoError(t, err)
	assert.Equal(t, "c", recs[0].ID())
	assert.Equal(t, "b", recs[1].ID())
	assert.Equal(t, "a", recs[2].ID())
}

// ---------------------------------------------------------------------------
// Isolation
// ---------------------------------------------------------------------------

func TestIsolation_ReadCopies(t *testing.T) {
	t.Parallel()

	s := New()
	created, err := s.Add("c", domain.Record{"tags": []any{"a"}, "n": int64(1)}, "")
	require.NoError(t, err)

	got, err := s.Get("c", created.ID())
	require.NoError(t, err)
	got["n"] = int64(99)
	got["tags"].([]any)[0] = "mutated"

	again, err := s.Get("c", created.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(1), again["n"])
	assert.Equal(t, "a", again["tags"].([]any)[0])
}

func TestIsolation_WriteCopies(t *testing.T) {
	t.Parallel()

	s := New()
	payload := domain.Record{"nested": map[string]any{"k": "v"}}
	created, err := s.Add("c", payload, "")
	require.NoError(t, err)

	payload["nested"].(map[string]any)["k"] = "mutated"
	created["nested"].(map[string]any)["k"] = "mutated too"

	got, err := s.Get("c", created.ID())
	require.NoError(t, err)
	assert.Equal(t, "v", got["nested"].(map[string]any)["k"])
}

// ---------------------------------------------------------------------------
// Set / Merge / Delete
// ---------------------------------------------------------------------------

func TestMergeVersusSet(t *testing.T) {
	t.Parallel()

	clock := int64(100)
	s := New(
		WithClock(func() time.Time { return time.UnixMilli(clock) }),
		WithIDGenerator(sequenceIDs("x")),
	)
	_, err := s.Add("c", domain.Record{"a": int64(0), "b": int64(2)}, "owner")
	require.NoError(t, err)

	clock = 200
	merged, err := s.Merge("c", "x", domain.Record{"a": int64(1), "_ownerId": "thief"})
	require.NoError(t, err)
	assert.Equal(t, domain.Record{
		"_id": "x", "_ownerId": "owner", "_createdOn": int64(100), "_updatedOn": int64(200),
		"a": int64(1), "b": int64(2),
	}, merged)

	clock = 300
	replaced, err := s.Set("c", "x", domain.Record{"a": int64(1), "_createdOn": int64(5)})
	require.NoError(t, err)
	assert.Equal(t, domain.Record{
		"_id": "x", "_ownerId": "owner", "_createdOn": int64(100), "_updatedOn": int64(300),
		"a": int64(1),
	}, replaced)
}

func TestSetMergeDelete_NotFound(t *testing.T) {
	t.Parallel()

	s := New(WithSeed(domain.Snapshot{"c": {}}))

	_, err := s.Set("c", "nope", domain.Record{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Merge("missing", "nope", domain.Record{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Delete("c", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	s := New(WithClock(fixedClock(42)), WithIDGenerator(sequenceIDs("x")))
	_, err := s.Add("c", domain.Record{}, "")
	require.NoError(t, err)

	del, err := s.Delete("c", "x")
	require.NoError(t, err)
	assert.Equal(t, domain.Deletion{DeletedOn: 42}, del)

	_, err = s.Get("c", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	recs, err := s.List("c")
	require.NoError(t, err)
	assert.Empty(t, recs, "collection stays after its last record is deleted")
}

// ---------------------------------------------------------------------------
// Query / GetMany / ListCollections
// ---------------------------------------------------------------------------

func TestQuery_CaseInsensitiveStrings(t *testing.T) {
	t.Parallel()

	s := New(WithSeed(domain.Snapshot{"users": {
		"1": {"email": "Peter@ABV.bg", "age": int64(30)},
		"2": {"email": "george@abv.bg", "age": int64(31)},
		"3": {"username": "no email"},
	}}))

	got, err := s.Query("users", domain.Record{"email": "peter@abv.bg"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID())

	got, err = s.Query("users", domain.Record{"age": 31.0})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID())

	got, err = s.Query("users", domain.Record{"_id": "3"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = s.Query("missing", domain.Record{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetMany(t *testing.T) {
	t.Parallel()

	s := New(WithSeed(domain.Snapshot{"teams": {
		"t1": {"name": "a"},
		"t2": {"name": "b"},
	}}))

	got, err := s.GetMany("teams", []string{"t1", "t3"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "a", got["t1"]["name"])
	assert.Equal(t, "t1", got["t1"].ID())

	_, err = s.GetMany("missing", []string{"t1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCollections(t *testing.T) {
	t.Parallel()

	s := New(WithSeed(domain.Snapshot{"b": {}, "a": {}}))
	_, err := s.Add("c", domain.Record{}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, s.ListCollections())
}

func TestSnapshot_IsCopy(t *testing.T) {
	t.Parallel()

	s := New(WithSeed(domain.Snapshot{"c": {"1": {"v": "x"}}}))
	snap := s.Snapshot()
	snap["c"]["1"]["v"] = "y"

	got, err := s.Get("c", "1")
	require.NoError(t, err)
	assert.Equal(t, "x", got["v"])
	assert.Equal(t, "1", snap["c"]["1"].ID())
}

func ExampleStore_Merge() {
	s := New(WithIDGenerator(func() string { return "r1" }), WithClock(fixedClock(0)))
	_, _ = s.Add("notes", domain.Record{"title": "draft", "body": "..."}, "u1")

	rec, _ := s.Merge("notes", "r1", domain.Record{"title": "final"})
	fmt.Println(rec["title"], rec["body"], rec.OwnerID())
	// Output: final ... u1
}
