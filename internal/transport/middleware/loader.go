package middleware

import (
	"net/http"

	"github.com/heartmarshall/docstore/internal/query"
)

// Loaders attaches a fresh relation loader to every request so load
// specifiers share one batch cache per request.
func Loaders(newLoader func() *query.Loader) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := query.WithLoader(r.Context(), newLoader())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
