package middleware

import (
	"net/http"

	"github.com/heartmarshall/docstore/pkg/ctxutil"
)

// AdminHeader marks a request as carrying the administrative override.
const AdminHeader = "X-Admin"

// Admin flags the request context when the X-Admin header is present,
// whatever its value.
func Admin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Header[http.CanonicalHeaderKey(AdminHeader)]; ok {
				r = r.WithContext(ctxutil.WithAdmin(r.Context()))
			}
			next.ServeHTTP(w, r)
		})
	}
}
