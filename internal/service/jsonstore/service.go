// Package jsonstore implements an unauthenticated tree of JSON values
// addressed by path segments.
package jsonstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Service holds the tree. Values handed in or out are deep copies.
type Service struct {
	log   *slog.Logger
	newID func() string

	mu   sync.Mutex
	root map[string]any
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator overrides the key generator used by Post.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// WithSeed preloads the tree.
func WithSeed(seed map[string]any) Option {
	return func(s *Service) {
		if m, ok := domain.Normalize(seed).(map[string]any); ok {
			s.root = m
		}
	}
}

// NewService creates a jsonstore service.
func NewService(logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		log:   logger.With("service", "jsonstore"),
		newID: func() string { return uuid.New().String() },
		root:  make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value at path, or nil when any segment is missing. An
// empty path returns the whole tree.
func (s *Service) Get(ctx context.Context, path []string) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.walk(path)
	if !ok {
		return nil
	}
	return domain.CopyValue(v)
}

// Post stores body under a new key below path, creating missing objects on
// the way, and returns it with its key as _id.
func (s *Service) Post(ctx context.Context, path []string, body domain.Record) (domain.Record, error) {
	if len(path) == 0 {
		return nil, errMissingPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.root
	for _, seg := range path {
		next, ok := node[seg]
		if !ok {
			child := make(map[string]any)
			node[seg] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, domain.Errorf(domain.ErrBadRequest, "Path segment %q is not an object", seg)
		}
		node = child
	}

	id := s.newID()
	rec := body.Clone()
	if rec == nil {
		rec = domain.Record{}
	}
	rec[domain.FieldID] = id
	node[id] = map[string]any(rec.Clone())

	s.log.DebugContext(ctx, "value created", slog.Any("path", path), slog.String("id", id))
	return rec, nil
}

// Put replaces an existing value. It returns the new value, or nil when
// nothing is stored at path.
func (s *Service) Put(ctx context.Context, path []string, body any) (any, error) {
	if len(path) == 0 {
		return nil, errMissingPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, key, ok := s.parentOf(path)
	if !ok {
		return nil, nil
	}
	if _, exists := parent[key]; !exists {
		return nil, nil
	}

	parent[key] = domain.CopyValue(domain.Normalize(body))
	return domain.CopyValue(parent[key]), nil
}

// Patch shallow-merges body onto the object at path and returns the
// result, or nil when nothing is stored at path.
func (s *Service) Patch(ctx context.Context, path []string, body domain.Record) (any, error) {
	if len(path) == 0 {
		return nil, errMissingPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.walk(path)
	if !ok {
		return nil, nil
	}
	target, ok := v.(map[string]any)
	if !ok {
		return nil, domain.Errorf(domain.ErrBadRequest, "Cannot merge into a non-object value")
	}
	for k, vv := range body {
		target[k] = domain.CopyValue(vv)
	}
	return domain.CopyValue(target), nil
}

// Delete removes the value at path and returns it, or nil when nothing is
// stored there.
func (s *Service) Delete(ctx context.Context, path []string) (any, error) {
	if len(path) == 0 {
		return nil, errMissingPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, key, ok := s.parentOf(path)
	if !ok {
		return nil, nil
	}
	v, exists := parent[key]
	if !exists {
		return nil, nil
	}
	delete(parent, key)

	s.log.DebugContext(ctx, "value deleted", slog.Any("path", path))
	return v, nil
}

// Snapshot returns a deep copy of the tree.
func (s *Service) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, _ := domain.CopyValue(s.root).(map[string]any)
	return out
}

var errMissingPath = fmt.Errorf("jsonstore: %w", domain.Errorf(domain.ErrBadRequest, "Missing collection"))

func (s *Service) walk(path []string) (any, bool) {
	var cur any = s.root
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// parentOf returns the object holding the last segment of path.
func (s *Service) parentOf(path []string) (map[string]any, string, bool) {
	v, ok := s.walk(path[:len(path)-1])
	if !ok {
		return nil, "", false
	}
	parent, ok := v.(map[string]any)
	if !ok {
		return nil, "", false
	}
	return parent, path[len(path)-1], true
}
