package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/pkg/ctxutil"
)

func TestRecovery_NoPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	Recovery(logger)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/data/recipes", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRecovery_Panic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("record store corrupted")
	})

	req := httptest.NewRequest(http.MethodGet, "/data/recipes/r1", nil)
	ctx := ctxutil.WithRequestID(req.Context(), "req-7")
	ctx = ctxutil.WithPrincipal(ctx, &domain.Principal{ID: "u1"})
	ctx = ctxutil.WithAdmin(ctx)
	rec := httptest.NewRecorder()

	Recovery(logger)(handler).ServeHTTP(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":500,"message":"Server Error"}`, rec.Body.String())

	out := buf.String()
	for _, want := range []string{"panic recovered", "record store corrupted", "request_id=req-7", "user_id=u1", "admin=true", "path=/data/recipes/r1"} {
		assert.Contains(t, out, want)
	}
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		Recovery(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
