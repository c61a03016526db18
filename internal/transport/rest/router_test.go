package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/docstore/internal/auth"
	"github.com/heartmarshall/docstore/internal/config"
	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/internal/query"
	"github.com/heartmarshall/docstore/internal/rules"
	authsvc "github.com/heartmarshall/docstore/internal/service/auth"
	"github.com/heartmarshall/docstore/internal/service/jsonstore"
	"github.com/heartmarshall/docstore/internal/service/records"
	"github.com/heartmarshall/docstore/internal/service/util"
	"github.com/heartmarshall/docstore/internal/store"
	"github.com/heartmarshall/docstore/internal/transport/middleware"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type testServer struct {
	handler http.Handler
	public  *store.Store
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	public := store.New()
	protected := store.New()

	authCfg := config.AuthConfig{
		JWTSecret:        "test-secret-at-least-32-chars-long-for-security",
		JWTIssuer:        "docstore-test",
		SessionTTL:       time.Hour,
		PasswordHashCost: 4,
		IdentityField:    "email",
	}
	storeCfg := config.StoreConfig{UsersCollection: "users", SessionsCollection: "sessions", DefaultPageSize: 10}

	ruleEngine := rules.NewEngine(nil, public.Get)
	queryEngine := query.NewEngine(query.Sources{Records: public})

	authService := authsvc.NewService(logger, protected,
		auth.NewTokenManager(authCfg.JWTSecret, authCfg.JWTIssuer, authCfg.SessionTTL),
		auth.NewPasswordHasher(authCfg.PasswordHashCost),
		authCfg, storeCfg)

	h := Handlers{
		Health:    NewHealthHandler(nil, "test"),
		Data:      NewDataHandler(records.NewService(logger, public, ruleEngine, queryEngine), storeCfg.DefaultPageSize, logger),
		Users:     NewUsersHandler(authService, logger),
		Util:      NewUtilHandler(util.NewService(logger, config.UtilConfig{}), logger),
		JSONStore: NewJSONStoreHandler(jsonstore.NewService(logger), logger),
	}

	handler := NewRouter(h, 1<<20,
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Admin(),
		middleware.Auth(authService, logger),
		middleware.Loaders(queryEngine.NewLoader),
	)
	return testServer{handler: handler, public: public}
}

func (s testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set(middleware.AuthHeader, token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/users/register", "", map[string]any{"email": email, "password": "123456"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decodeMap(t, rec)["accessToken"].(string)
	require.NotEmpty(t, token)
	return token
}

// ---------------------------------------------------------------------------
// Data
// ---------------------------------------------------------------------------

func TestRouter_DataLifecycle(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	alice := srv.register(t, "alice@example.com")
	bob := srv.register(t, "bob@example.com")

	rec := srv.do(t, http.MethodPost, "/data/recipes", alice, map[string]any{"name": "Soup", "time": 20})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeMap(t, rec)
	id, _ := created[domain.FieldID].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, created[domain.FieldOwnerID])

	// Anyone may read.
	rec = srv.do(t, http.MethodGet, "/data/recipes/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Soup", decodeMap(t, rec)["name"])

	// Only the owner may change it.
	rec = srv.do(t, http.MethodPatch, "/data/recipes/"+id, bob, map[string]any{"name": "Stolen"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPatch, "/data/recipes/"+id, alice, map[string]any{"name": "Stew"})
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decodeMap(t, rec)
	assert.Equal(t, "Stew", patched["name"])
	assert.EqualValues(t, 20, patched["time"])

	rec = srv.do(t, http.MethodPut, "/data/recipes/"+id, alice, map[string]any{"name": "Salad"})
	require.Equal(t, http.StatusOK, rec.Code)
	_, hasTime := decodeMap(t, rec)["time"]
	assert.False(t, hasTime, "replace drops unspecified fields")

	rec = srv.do(t, http.MethodDelete, "/data/recipes/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/data/recipes/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeMap(t, rec), domain.FieldDeletedOn)

	rec = srv.do(t, http.MethodGet, "/data/recipes/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DataListAndCollections(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	token := srv.register(t, "cook@example.com")

	for _, name := range []string{"b", "a", "c"} {
		rec := srv.do(t, http.MethodPost, "/data/recipes", token, map[string]any{"name": name})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := srv.do(t, http.MethodGet, "/data/recipes?sortBy=name&select=name", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, []any{"a", "b", "c"}, []any{list[0]["name"], list[1]["name"], list[2]["name"]})

	rec = srv.do(t, http.MethodGet, "/data/recipes?count=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", strings.TrimSpace(rec.Body.String()))

	rec = srv.do(t, http.MethodGet, "/data", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recipes")
}

func TestRouter_DataErrors(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	token := srv.register(t, "errors@example.com")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       any
		wantStatus int
	}{
		{"anonymous create", http.MethodPost, "/data/recipes", "", map[string]any{"a": 1}, http.StatusUnauthorized},
		{"missing body", http.MethodPost, "/data/recipes", token, nil, http.StatusBadRequest},
		{"array body", http.MethodPost, "/data/recipes", token, []any{1}, http.StatusBadRequest},
		{"post with id", http.MethodPost, "/data/recipes/x", token, map[string]any{"a": 1}, http.StatusBadRequest},
		{"path too deep", http.MethodGet, "/data/a/b/c", "", nil, http.StatusBadRequest},
		{"missing collection", http.MethodGet, "/data/ghosts", "", nil, http.StatusNotFound},
		{"method not allowed", http.MethodHead, "/data/recipes", "", nil, http.StatusMethodNotAllowed},
		{"invalid token", http.MethodGet, "/data", "garbage", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.method != http.MethodHead {
				body := decodeMap(t, rec)
				assert.EqualValues(t, tt.wantStatus, body["code"])
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestRouter_AdminBypassesOwnership(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	token := srv.register(t, "owner@example.com")

	rec := srv.do(t, http.MethodPost, "/data/notes", token, map[string]any{"text": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeMap(t, rec)[domain.FieldID].(string)

	req := httptest.NewRequest(http.MethodDelete, "/data/notes/"+id, nil)
	req.Header.Set(middleware.AdminHeader, "1")
	out := httptest.NewRecorder()
	srv.handler.ServeHTTP(out, req)

	assert.Equal(t, http.StatusOK, out.Code, out.Body.String())
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestRouter_Users(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	token := srv.register(t, "peter@example.com")

	rec := srv.do(t, http.MethodPost, "/users/register", "", map[string]any{"email": "peter@example.com", "password": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/users/login", "", map[string]any{"email": "peter@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/users/login", "", map[string]any{"email": "peter@example.com", "password": "123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeMap(t, rec)
	assert.NotEmpty(t, login["accessToken"])
	assert.NotContains(t, login, domain.FieldHashedPassword)

	rec = srv.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "peter@example.com", decodeMap(t, rec)["email"])

	rec = srv.do(t, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/users/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/users/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = srv.do(t, http.MethodGet, "/users/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---------------------------------------------------------------------------
// Util, jsonstore and routing
// ---------------------------------------------------------------------------

func TestRouter_Util(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/util/throttle", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "false", strings.TrimSpace(rec.Body.String()))

	rec = srv.do(t, http.MethodPost, "/util", "", map[string]any{"throttle": true})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/util/throttle", "", nil)
	assert.Equal(t, "true", strings.TrimSpace(rec.Body.String()))

	rec = srv.do(t, http.MethodGet, "/util/unknown", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_JSONStore(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/jsonstore/todos", "", map[string]any{"title": "write"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id, _ := decodeMap(t, rec)[domain.FieldID].(string)
	require.NotEmpty(t, id)

	rec = srv.do(t, http.MethodPatch, "/jsonstore/todos/"+id, "", map[string]any{"done": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/jsonstore/todos/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeMap(t, rec)
	assert.Equal(t, "write", got["title"])
	assert.Equal(t, true, got["done"])

	rec = srv.do(t, http.MethodPut, "/jsonstore/todos/"+id+"/title", "", "rewrite")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"rewrite"`, strings.TrimSpace(rec.Body.String()))

	rec = srv.do(t, http.MethodDelete, "/jsonstore/todos/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/jsonstore/todos/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_UnsupportedService(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/nothing/here", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `Service "nothing" is not supported`, decodeMap(t, rec)["message"])
}

func TestRouter_BodyTooLarge(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	token := srv.register(t, "big@example.com")

	req := httptest.NewRequest(http.MethodPost, "/data/blobs",
		strings.NewReader(`{"payload":"`+strings.Repeat("x", 2<<20)+`"}`))
	req.Header.Set(middleware.AuthHeader, token)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body too large", decodeMap(t, rec)["message"])
}
