package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/internal/query"
	"github.com/heartmarshall/docstore/internal/service/records"
	"github.com/heartmarshall/docstore/pkg/ctxutil"
)

// recordsService defines the minimal interface needed by DataHandler.
type recordsService interface {
	Handle(ctx context.Context, req records.Request) (any, error)
}

// DataHandler serves /data: the rule-guarded CRUD surface.
type DataHandler struct {
	svc             recordsService
	log             *slog.Logger
	defaultPageSize int
}

// NewDataHandler creates a DataHandler.
func NewDataHandler(svc recordsService, defaultPageSize int, logger *slog.Logger) *DataHandler {
	return &DataHandler{svc: svc, log: logger.With("handler", "data"), defaultPageSize: defaultPageSize}
}

var methodActions = map[string]domain.Action{
	http.MethodGet:    domain.ActionRead,
	http.MethodPost:   domain.ActionCreate,
	http.MethodPut:    domain.ActionUpdate,
	http.MethodPatch:  domain.ActionUpdate,
	http.MethodDelete: domain.ActionDelete,
}

// ServeHTTP handles /data[/{collection}[/{id}]].
func (h *DataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action, ok := methodActions[r.Method]
	if !ok {
		methodNotAllowed(w)
		return
	}

	segs := segments(r.URL.Path, "/data")
	if len(segs) > 2 {
		writeError(w, http.StatusBadRequest, "Invalid request path")
		return
	}

	req := records.Request{
		Action: action,
		Admin:  ctxutil.IsAdmin(r.Context()),
		Merge:  r.Method == http.MethodPatch,
	}
	if len(segs) > 0 {
		req.Collection = segs[0]
	}
	if len(segs) > 1 {
		req.ID = segs[1]
	}
	if p, ok := ctxutil.PrincipalFromCtx(r.Context()); ok {
		req.Principal = p
	}

	if action == domain.ActionRead && req.Collection != "" {
		params, err := query.ParseParams(r.URL.Query(), h.defaultPageSize)
		if err != nil {
			handleError(w, r, h.log, err)
			return
		}
		req.Params = params
	}

	if action == domain.ActionCreate || action == domain.ActionUpdate {
		body, err := decodeRecord(r)
		if err != nil {
			handleError(w, r, h.log, err)
			return
		}
		req.Payload = body
	}

	result, err := h.svc.Handle(r.Context(), req)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respond(w, result)
}
