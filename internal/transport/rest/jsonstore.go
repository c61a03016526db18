package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/docstore/internal/domain"
)

// jsonstoreService defines the minimal interface needed by JSONStoreHandler.
type jsonstoreService interface {
	Get(ctx context.Context, path []string) any
	Post(ctx context.Context, path []string, body domain.Record) (domain.Record, error)
	Put(ctx context.Context, path []string, body any) (any, error)
	Patch(ctx context.Context, path []string, body domain.Record) (any, error)
	Delete(ctx context.Context, path []string) (any, error)
}

// JSONStoreHandler serves /jsonstore: an unauthenticated value tree.
type JSONStoreHandler struct {
	svc jsonstoreService
	log *slog.Logger
}

// NewJSONStoreHandler creates a JSONStoreHandler.
func NewJSONStoreHandler(svc jsonstoreService, logger *slog.Logger) *JSONStoreHandler {
	return &JSONStoreHandler{svc: svc, log: logger.With("handler", "jsonstore")}
}

// ServeHTTP handles every method on /jsonstore/{path...}. Missing paths
// answer 204.
func (h *JSONStoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := segments(r.URL.Path, "/jsonstore")
	ctx := r.Context()

	var (
		result any
		err    error
	)
	switch r.Method {
	case http.MethodGet:
		result = h.svc.Get(ctx, path)
	case http.MethodPost:
		var body domain.Record
		if body, err = decodeRecord(r); err == nil {
			var rec domain.Record
			rec, err = h.svc.Post(ctx, path, body)
			if rec != nil {
				result = rec
			}
		}
	case http.MethodPut:
		var body any
		if body, err = decodeBody(r); err == nil {
			result, err = h.svc.Put(ctx, path, body)
		}
	case http.MethodPatch:
		var body domain.Record
		if body, err = decodeRecord(r); err == nil {
			result, err = h.svc.Patch(ctx, path, body)
		}
	case http.MethodDelete:
		result, err = h.svc.Delete(ctx, path)
	default:
		methodNotAllowed(w)
		return
	}

	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respond(w, result)
}
