package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/pkg/ctxutil"
)

// AuthHeader carries the access token.
const AuthHeader = "X-Authorization"

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// Auth resolves the X-Authorization token into a principal. Requests
// without a token pass through anonymously; a rejected token ends the
// request.
func Auth(svc authenticator, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(AuthHeader))
			if token == "" {
				next.ServeHTTP(w, r) // Anonymous
				return
			}

			p, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrUnauthorized) {
					writeError(w, http.StatusForbidden, domain.Message(err))
					return
				}
				logger.ErrorContext(r.Context(), "authenticate",
					slog.String("error", err.Error()),
					slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())))
				writeError(w, http.StatusInternalServerError, "Server Error")
				return
			}

			if h := holderFromCtx(r.Context()); h != nil {
				h.userID = p.ID
			}
			next.ServeHTTP(w, r.WithContext(ctxutil.WithPrincipal(r.Context(), p)))
		})
	}
}

// principalHolder lets outer middleware see who a request was served for.
type principalHolder struct {
	userID string
}

type holderKey struct{}

func withPrincipalHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func holderFromCtx(ctx context.Context) *principalHolder {
	h, _ := ctx.Value(holderKey{}).(*principalHolder)
	return h
}
