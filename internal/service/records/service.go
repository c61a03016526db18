// Package records orchestrates CRUD requests against the public record
// store: rule checks first, then the store operation, then redaction and
// the query pipeline on whatever is read back.
package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/internal/query"
	"github.com/heartmarshall/docstore/internal/rules"
)

// recordStore is the subset of the store used by the service.
type recordStore interface {
	ListCollections() []string
	Get(collection, id string) (domain.Record, error)
	List(collection string) ([]domain.Record, error)
	Add(collection string, data domain.Record, ownerID string) (domain.Record, error)
	Set(collection, id string, data domain.Record) (domain.Record, error)
	Merge(collection, id string, data domain.Record) (domain.Record, error)
	Delete(collection, id string) (domain.Deletion, error)
}

// authorizer decides guarded requests.
type authorizer interface {
	Authorize(req rules.Request) (*rules.Access, error)
}

// queryRunner shapes records read from the store.
type queryRunner interface {
	Run(ctx context.Context, records []domain.Record, p query.Params) (query.Result, error)
	Shape(ctx context.Context, rec domain.Record, p query.Params) (domain.Record, error)
}

// Service implements record operations.
type Service struct {
	log   *slog.Logger
	store recordStore
	rules authorizer
	query queryRunner
}

// NewService creates a new records service instance.
func NewService(logger *slog.Logger, store recordStore, rules authorizer, query queryRunner) *Service {
	return &Service{
		log:   logger.With("service", "records"),
		store: store,
		rules: rules,
		query: query,
	}
}

// Handle dispatches req to the operation its action names and returns the
// value sent to the client: a record, a list of records, a count, a
// deletion or the collection list.
func (s *Service) Handle(ctx context.Context, req Request) (any, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch req.Action {
	case domain.ActionRead:
		if req.Collection == "" {
			return s.Collections(ctx), nil
		}
		// A where clause queries the whole collection even when an id
		// is addressed.
		if req.ID == "" || req.Params.IsListQuery() {
			res, err := s.List(ctx, req)
			if err != nil {
				return nil, err
			}
			return res.Value(), nil
		}
		return s.Read(ctx, req)
	case domain.ActionCreate:
		return s.Create(ctx, req)
	case domain.ActionUpdate:
		if req.Merge {
			return s.Merge(ctx, req)
		}
		return s.Replace(ctx, req)
	case domain.ActionDelete:
		return s.Delete(ctx, req)
	default:
		return nil, fmt.Errorf("records.Handle: unsupported action %q", req.Action)
	}
}

func (s *Service) authorize(req Request, action domain.Action, data, newData domain.Record) (*rules.Access, error) {
	return s.rules.Authorize(rules.Request{
		Action:     action,
		Collection: req.Collection,
		Principal:  req.Principal,
		Admin:      req.Admin,
		Data:       data,
		NewData:    newData,
	})
}

// ownerOf returns the id recorded as _ownerId for records created by req.
func ownerOf(req Request) string {
	if req.Principal == nil {
		return ""
	}
	return req.Principal.ID
}
