package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/docstore/internal/domain"
)

// utilService defines the minimal interface needed by UtilHandler.
type utilService interface {
	Get(name string) (bool, bool)
	Set(ctx context.Context, values map[string]bool)
}

// UtilHandler serves /util: runtime toggles.
type UtilHandler struct {
	svc utilService
	log *slog.Logger
}

// NewUtilHandler creates a UtilHandler.
func NewUtilHandler(svc utilService, logger *slog.Logger) *UtilHandler {
	return &UtilHandler{svc: svc, log: logger.With("handler", "util")}
}

// ServeHTTP handles GET /util/{name} and POST /util.
func (h *UtilHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segs := segments(r.URL.Path, "/util")

	switch {
	case r.Method == http.MethodGet && len(segs) == 1:
		v, ok := h.svc.Get(segs[0])
		if !ok {
			respond(w, nil)
			return
		}
		respond(w, v)
	case r.Method == http.MethodPost:
		h.set(w, r)
	case r.Method == http.MethodGet:
		writeError(w, http.StatusNotFound, domain.DefaultMessage(domain.ErrNotFound))
	default:
		methodNotAllowed(w)
	}
}

func (h *UtilHandler) set(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRecord(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	values := make(map[string]bool, len(body))
	for k, v := range body {
		values[k] = domain.Truthy(v)
	}
	h.svc.Set(r.Context(), values)

	respond(w, nil)
}
