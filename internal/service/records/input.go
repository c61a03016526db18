package records

import (
	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/internal/query"
)

// Request is one CRUD request against the public store.
type Request struct {
	Action     domain.Action
	Collection string
	ID         string
	Principal  *domain.Principal
	// Admin carries the administrative override.
	Admin   bool
	Payload domain.Record
	Params  query.Params
	// Merge selects a shallow merge instead of a full replace on update.
	Merge bool
}

// Validate checks that the request names what its action needs.
func (r Request) Validate() error {
	switch r.Action {
	case domain.ActionRead:
		if r.ID != "" && r.Collection == "" {
			return domain.Errorf(domain.ErrBadRequest, "Missing collection")
		}
	case domain.ActionCreate:
		if r.Collection == "" {
			return domain.Errorf(domain.ErrBadRequest, "Missing collection")
		}
		if r.ID != "" {
			return domain.Errorf(domain.ErrBadRequest, "Use PUT to update records")
		}
		if r.Payload == nil {
			return domain.NewValidationError("body", "required")
		}
	case domain.ActionUpdate, domain.ActionDelete:
		if r.Collection == "" {
			return domain.Errorf(domain.ErrBadRequest, "Missing collection")
		}
		if r.ID == "" {
			return domain.Errorf(domain.ErrBadRequest, "Missing entry ID")
		}
		if r.Action == domain.ActionUpdate && r.Payload == nil {
			return domain.NewValidationError("body", "required")
		}
	default:
		return domain.Errorf(domain.ErrBadRequest, "Unsupported action %q", r.Action)
	}
	return nil
}
