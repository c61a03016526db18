package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/pkg/ctxutil"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// respond writes v as JSON, or 204 without a body when there is nothing
// to send.
func respond(w http.ResponseWriter, v any) {
	if v == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Code: status, Message: message})
}

// handleError maps err to its status. Errors of no known kind are logged
// and answered with a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())))
		writeError(w, status, "Server Error")
		return
	}
	writeError(w, status, domain.Message(err))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// segments splits a request path below prefix into its non-empty parts.
func segments(path, prefix string) []string {
	rest := strings.TrimPrefix(path, prefix)
	var out []string
	for _, s := range strings.Split(rest, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeBody reads a JSON body. An empty body decodes to nil.
func decodeBody(r *http.Request) (any, error) {
	var v any
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, domain.Errorf(domain.ErrBadRequest, "Request body too large")
		}
		return nil, domain.Errorf(domain.ErrBadRequest, "Request body is not valid JSON")
	}
	return domain.Normalize(v), nil
}

// decodeRecord reads a JSON object body. An empty body decodes to nil.
func decodeRecord(r *http.Request) (domain.Record, error) {
	v, err := decodeBody(r)
	if err != nil || v == nil {
		return nil, err
	}
	rec, ok := domain.ToRecord(v)
	if !ok {
		return nil, domain.Errorf(domain.ErrBadRequest, "Request body must be a JSON object")
	}
	return rec, nil
}
