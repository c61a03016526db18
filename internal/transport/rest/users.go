package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/internal/service/auth"
	"github.com/heartmarshall/docstore/pkg/ctxutil"
)

// authService defines the minimal interface needed by UsersHandler.
type authService interface {
	Register(ctx context.Context, body domain.Record) (*auth.AuthResult, error)
	Login(ctx context.Context, body domain.Record) (*auth.AuthResult, error)
	Logout(ctx context.Context, p *domain.Principal) error
	Me(ctx context.Context, p *domain.Principal) (domain.Record, error)
}

// UsersHandler serves /users.
type UsersHandler struct {
	svc authService
	log *slog.Logger
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(svc authService, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{svc: svc, log: logger.With("handler", "users")}
}

// ServeHTTP dispatches /users/{register,login,logout,me}.
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segs := segments(r.URL.Path, "/users")
	if len(segs) != 1 {
		writeError(w, http.StatusNotFound, domain.DefaultMessage(domain.ErrNotFound))
		return
	}

	switch op := segs[0]; {
	case op == "register" && r.Method == http.MethodPost:
		h.Register(w, r)
	case op == "login" && r.Method == http.MethodPost:
		h.Login(w, r)
	case op == "logout" && r.Method == http.MethodGet:
		h.Logout(w, r)
	case op == "me" && r.Method == http.MethodGet:
		h.Me(w, r)
	case op == "register" || op == "login" || op == "logout" || op == "me":
		methodNotAllowed(w)
	default:
		writeError(w, http.StatusNotFound, domain.DefaultMessage(domain.ErrNotFound))
	}
}

// Register handles POST /users/register.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRecord(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	result, err := h.svc.Register(r.Context(), body)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Value())
}

// Login handles POST /users/login.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := decodeRecord(r)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	result, err := h.svc.Login(r.Context(), body)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Value())
}

// Logout handles GET /users/logout. It answers 204 with no body.
func (h *UsersHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, _ := ctxutil.PrincipalFromCtx(r.Context())
	if err := h.svc.Logout(r.Context(), p); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respond(w, nil)
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := ctxutil.PrincipalFromCtx(r.Context())
	me, err := h.svc.Me(r.Context(), p)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, me)
}
