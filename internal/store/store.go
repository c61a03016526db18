// Package store implements the in-memory record store: named collections of
// schemaless records with generated identifiers and system fields.
//
// Every operation runs under one mutex and copies records at the boundary,
// so callers never hold references into store state.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Store holds collections of records.
type Store struct {
	mu          sync.Mutex
	collections map[string]*recordSet

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for system timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithSeed preloads the store with a snapshot. Records are copied as is,
// including any system fields they carry, and ordered by _createdOn.
func WithSeed(seed domain.Snapshot) Option {
	return func(s *Store) {
		for name, records := range seed {
			c := newRecordSet()
			for _, id := range seedOrder(records) {
				r, _ := domain.ToRecord(map[string]any(records[id]))
				if r == nil {
					r = domain.Record{}
				}
				c.put(id, r.Clone())
			}
			s.collections[name] = c
		}
	}
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]*recordSet),
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCollections returns the names of all collections in lexical order.
func (s *Store) ListCollections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of one record.
func (s *Store) Get(collection, id string) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lookup(collection, id)
	if err != nil {
		return nil, err
	}
	return annotate(rec, id), nil
}

// List returns copies of all records of a collection in insertion order.
func (s *Store) List(collection string) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, collectionNotFound(collection)
	}

	out := make([]domain.Record, 0, len(coll.order))
	for _, id := range coll.order {
		out = append(out, annotate(coll.records[id], id))
	}
	return out, nil
}

// GetMany returns copies of the records with the given ids. Missing ids are
// absent from the result; a missing collection is an error.
func (s *Store) GetMany(collection string, ids []string) (map[string]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, collectionNotFound(collection)
	}

	out := make(map[string]domain.Record, len(ids))
	for _, id := range ids {
		if rec, ok := coll.records[id]; ok {
			out[id] = annotate(rec, id)
		}
	}
	return out, nil
}

// Add stores data as a new record. The collection is created if absent.
// System fields in data are ignored; ownerID, when non-empty, becomes the
// record's _ownerId.
func (s *Store) Add(collection string, data domain.Record, ownerID string) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		coll = newRecordSet()
		s.collections[collection] = coll
	}

	id := s.newID()
	for {
		if _, taken := coll.records[id]; !taken {
			break
		}
		id = s.newID()
	}

	rec := data.WithoutSystemFields()
	if ownerID != "" {
		rec[domain.FieldOwnerID] = ownerID
	}
	rec[domain.FieldCreatedOn] = s.now().UnixMilli()

	coll.put(id, rec)
	return annotate(rec, id), nil
}

// Set replaces a record. The existing _ownerId, _createdOn and _updatedOn
// are carried over, then _updatedOn is stamped.
func (s *Store) Set(collection, id string, data domain.Record) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.lookup(collection, id)
	if err != nil {
		return nil, err
	}

	rec := data.WithoutSystemFields()
	for _, f := range []string{domain.FieldOwnerID, domain.FieldCreatedOn, domain.FieldUpdatedOn} {
		if v, ok := existing[f]; ok {
			rec[f] = domain.CopyValue(v)
		}
	}
	rec[domain.FieldUpdatedOn] = s.now().UnixMilli()

	s.collections[collection].put(id, rec)
	return annotate(rec, id), nil
}

// Merge shallow-merges data onto a record, ignoring system fields in data.
func (s *Store) Merge(collection, id string, data domain.Record) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.lookup(collection, id)
	if err != nil {
		return nil, err
	}

	rec := existing.Clone()
	for k, v := range data {
		if domain.IsSystemField(k) {
			continue
		}
		rec[k] = domain.CopyValue(v)
	}
	rec[domain.FieldUpdatedOn] = s.now().UnixMilli()

	s.collections[collection].put(id, rec)
	return annotate(rec, id), nil
}

// Delete removes a record and reports when it happened.
func (s *Store) Delete(collection, id string) (domain.Deletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(collection, id); err != nil {
		return domain.Deletion{}, err
	}
	s.collections[collection].remove(id)

	return domain.Deletion{DeletedOn: s.now().UnixMilli()}, nil
}

// Query returns copies of the records whose fields equal every entry of
// match. Strings compare case-insensitively.
func (s *Store) Query(collection string, match domain.Record) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, collectionNotFound(collection)
	}

	fold := cases.Fold()
	var out []domain.Record
	for _, id := range coll.order {
		rec := annotate(coll.records[id], id)
		if matches(fold, rec, match) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Snapshot returns a deep copy of every collection.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(domain.Snapshot, len(s.collections))
	for name, coll := range s.collections {
		c := make(map[string]domain.Record, len(coll.records))
		for id, rec := range coll.records {
			c[id] = annotate(rec, id)
		}
		out[name] = c
	}
	return out
}

func (s *Store) lookup(collection, id string) (domain.Record, error) {
	coll, ok := s.collections[collection]
	if !ok {
		return nil, collectionNotFound(collection)
	}
	rec, ok := coll.records[id]
	if !ok {
		return nil, fmt.Errorf("store: record %q in %q: %w", id, collection, domain.ErrNotFound)
	}
	return rec, nil
}

func collectionNotFound(name string) error {
	return fmt.Errorf("store: collection %q: %w", name, domain.ErrNotFound)
}

func annotate(rec domain.Record, id string) domain.Record {
	out := rec.Clone()
	if out == nil {
		out = domain.Record{}
	}
	out[domain.FieldID] = id
	return out
}

// seedOrder orders seed records by _createdOn, then by id.
func seedOrder(records map[string]domain.Record) []string {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ci, _ := domain.ToNumber(records[ids[i]][domain.FieldCreatedOn])
		cj, _ := domain.ToNumber(records[ids[j]][domain.FieldCreatedOn])
		if ci != cj {
			return ci < cj
		}
		return ids[i] < ids[j]
	})
	return ids
}

func matches(fold cases.Caser, rec, match domain.Record) bool {
	for k, want := range match {
		got, ok := rec[k]
		if !ok {
			return false
		}
		ws, wok := want.(string)
		gs, gok := got.(string)
		if wok && gok {
			if fold.String(ws) != fold.String(gs) {
				return false
			}
			continue
		}
		if !domain.LooseEqual(got, want) {
			return false
		}
	}
	return true
}
