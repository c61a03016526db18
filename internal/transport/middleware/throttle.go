package middleware

import (
	"math/rand/v2"
	"net/http"
	"time"
)

type toggles interface {
	Enabled(name string) bool
}

// Throttle delays every request by a random duration in [lo, hi) while
// the named toggle is on.
func Throttle(t toggles, name string, lo, hi time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if t.Enabled(name) {
				delay := lo
				if hi > lo {
					delay += time.Duration(rand.Int64N(int64(hi - lo)))
				}
				timer := time.NewTimer(delay)
				select {
				case <-timer.C:
				case <-r.Context().Done():
					timer.Stop()
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
