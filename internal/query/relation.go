package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/docstore/internal/domain"
)

const (
	maxBatch = 100
	wait     = 2 * time.Millisecond
)

// Relation is one `prop=idField:collection` item of the load option: the
// record whose _id equals the value of IDField is attached under Prop.
type Relation struct {
	Prop       string
	IDField    string
	Collection string
}

// ParseRelations parses a comma-separated load value.
func ParseRelations(s string) ([]Relation, error) {
	var out []Relation
	for _, item := range splitList(s) {
		prop, target, ok := strings.Cut(item, "=")
		if !ok {
			return nil, badRelation(item)
		}
		idField, collection, ok := strings.Cut(target, ":")
		prop, idField, collection = strings.TrimSpace(prop), strings.TrimSpace(idField), strings.TrimSpace(collection)
		if !ok || prop == "" || idField == "" || collection == "" {
			return nil, badRelation(item)
		}
		out = append(out, Relation{Prop: prop, IDField: idField, Collection: collection})
	}
	return out, nil
}

func badRelation(item string) error {
	return domain.Errorf(domain.ErrBadRequest, "Invalid load expression %q, expected prop=idField:collection", item)
}

// ---------------------------------------------------------------------------
// Sources
// ---------------------------------------------------------------------------

// RecordSource resolves records by id in bulk. Missing ids are absent from
// the result.
type RecordSource interface {
	GetMany(collection string, ids []string) (map[string]domain.Record, error)
}

// Sources tells the loader where related records live. Relations into
// IdentityCollection are served from Identities with password hashes
// removed; everything else comes from Records.
type Sources struct {
	Records            RecordSource
	Identities         RecordSource
	IdentityCollection string
}

func (s Sources) sourceFor(collection string) RecordSource {
	if s.Identities != nil && collection == s.IdentityCollection {
		return s.Identities
	}
	return s.Records
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// Loader batches related-record lookups, one DataLoader per collection.
// A Loader caches what it fetched, so it must not outlive a request.
type Loader struct {
	sources Sources

	mu      sync.Mutex
	loaders map[string]*dataloader.Loader[string, domain.Record]
}

// NewLoader creates a Loader over the given sources.
func NewLoader(src Sources) *Loader {
	return &Loader{
		sources: src,
		loaders: make(map[string]*dataloader.Loader[string, domain.Record]),
	}
}

// Load returns a copy of one related record.
func (l *Loader) Load(ctx context.Context, collection, id string) (domain.Record, error) {
	rec, err := l.loaderFor(collection).Load(ctx, id)()
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Attach resolves rel for every record and stores the related record under
// rel.Prop. A record without an id value gets null. All lookups of one
// call are issued before any is awaited so they share a batch.
func (l *Loader) Attach(ctx context.Context, records []domain.Record, rel Relation) error {
	loader := l.loaderFor(rel.Collection)

	thunks := make([]dataloader.Thunk[domain.Record], len(records))
	for i, r := range records {
		v, ok := r[rel.IDField]
		if !ok || v == nil {
			continue
		}
		thunks[i] = loader.Load(ctx, domain.Stringify(v))
	}

	for i, thunk := range thunks {
		if thunk == nil {
			records[i][rel.Prop] = nil
			continue
		}
		related, err := thunk()
		if err != nil {
			return fmt.Errorf("load %s: %w", rel.Prop, err)
		}
		records[i][rel.Prop] = map[string]any(related.Clone())
	}
	return nil
}

func (l *Loader) loaderFor(collection string) *dataloader.Loader[string, domain.Record] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ld, ok := l.loaders[collection]; ok {
		return ld
	}
	ld := newLoader(l.newBatchFn(collection))
	l.loaders[collection] = ld
	return ld
}

func (l *Loader) newBatchFn(collection string) dataloader.BatchFunc[string, domain.Record] {
	src := l.sources.sourceFor(collection)
	strip := collection == l.sources.IdentityCollection

	return func(_ context.Context, keys []string) []*dataloader.Result[domain.Record] {
		if src == nil {
			return errorResults[domain.Record](len(keys), fmt.Errorf("collection %q: %w", collection, domain.ErrNotFound))
		}
		found, err := src.GetMany(collection, keys)
		if err != nil {
			return errorResults[domain.Record](len(keys), err)
		}

		results := make([]*dataloader.Result[domain.Record], len(keys))
		for i, k := range keys {
			rec, ok := found[k]
			if !ok {
				results[i] = &dataloader.Result[domain.Record]{
					Error: fmt.Errorf("record %q in %q: %w", k, collection, domain.ErrNotFound),
				}
				continue
			}
			if strip {
				delete(rec, domain.FieldHashedPassword)
			}
			results[i] = &dataloader.Result[domain.Record]{Data: rec}
		}
		return results
	}
}

// newLoader creates a dataloader.Loader with standard batch parameters.
func newLoader[V any](batchFn dataloader.BatchFunc[string, V]) *dataloader.Loader[string, V] {
	return dataloader.NewBatchedLoader(
		batchFn,
		dataloader.WithWait[string, V](wait),
		dataloader.WithBatchCapacity[string, V](maxBatch),
	)
}

func errorResults[V any](n int, err error) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], n)
	for i := range results {
		results[i] = &dataloader.Result[V]{Error: err}
	}
	return results
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type contextKey string

const loaderKey contextKey = "relation-loader"

// WithLoader stores a Loader in the context.
func WithLoader(ctx context.Context, l *Loader) context.Context {
	return context.WithValue(ctx, loaderKey, l)
}

// LoaderFromContext returns the Loader stored in ctx, or nil.
func LoaderFromContext(ctx context.Context) *Loader {
	l, _ := ctx.Value(loaderKey).(*Loader)
	return l
}
