// Package rest is the HTTP surface. The first path segment names the
// service a request goes to.
package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/heartmarshall/docstore/internal/transport/middleware"
)

// Handlers groups the per-service handlers mounted by NewRouter.
type Handlers struct {
	Health    *HealthHandler
	Data      *DataHandler
	Users     *UsersHandler
	Util      *UtilHandler
	JSONStore *JSONStoreHandler
}

// NewRouter mounts every service and wraps the result in mws, outermost
// first.
func NewRouter(h Handlers, maxBodyBytes int64, mws ...middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", h.Health.Live)
	mux.HandleFunc("/readyz", h.Health.Ready)

	mount(mux, "data", h.Data)
	mount(mux, "users", h.Users)
	mount(mux, "util", h.Util)
	mount(mux, "jsonstore", h.JSONStore)

	mux.HandleFunc("/", unsupportedService)

	return middleware.Chain(mws...)(limitBody(maxBodyBytes, mux))
}

func mount(mux *http.ServeMux, service string, handler http.Handler) {
	mux.Handle("/"+service, handler)
	mux.Handle("/"+service+"/", handler)
}

func unsupportedService(w http.ResponseWriter, r *http.Request) {
	name, _, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	writeError(w, http.StatusBadRequest, fmt.Sprintf("Service %q is not supported", name))
}

func limitBody(n int64, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		next.ServeHTTP(w, r)
	})
}
