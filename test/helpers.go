package test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/tasklist/internal/events"
	"github.com/yourorg/tasklist/internal/handler"
	"github.com/yourorg/tasklist/internal/infrastructure/logger"
	"github.com/yourorg/tasklist/internal/repository"
	"github.com/yourorg/tasklist/internal/security/audit"
	"github.com/yourorg/tasklist/internal/security/auth"
	"github.com/yourorg/tasklist/internal/security/middleware"
	"github.com/yourorg/tasklist/internal/security/ratelimit"
	"github.com/yourorg/tasklist/internal/service"
	"github.com/yourorg/tasklist/internal/store"
	"github.com/yourorg/tasklist/pkg/cache"
)

// TestServerHelper runs the service against the in-memory backend with the
// full middleware chain, the way cmd/server wires it.
type TestServerHelper struct {
	Server  *httptest.Server
	Logger  *slog.Logger
	limiter *ratelimit.Limiter
}

func NewTestServer(t *testing.T) *TestServerHelper {
	log := logger.NewLogger("debug")

	backend := repository.NewMemoryBackend()
	hub := events.NewHub()
	stores := store.NewManager(backend, hub, log)

	tokenManager := auth.NewTokenManager("integration-test-secret", "tasklist")
	authService := service.NewAuthService(repository.NewMemoryUserRepository(), tokenManager, log)
	limiter := ratelimit.NewLimiter(1000, time.Minute)

	mux := http.NewServeMux()
	mux.Handle("GET /api/items", handler.NewListItemsHandler(stores, log))
	mux.Handle("POST /api/items", handler.NewCreateItemHandler(stores, log))
	mux.Handle("POST /api/items/{id}/status", handler.NewUpdateStatusHandler(stores, log))
	mux.Handle("DELETE /api/items/{id}", handler.NewDeleteItemHandler(stores, log))

	authHandler := handler.NewAuthHandler(authService, limiter, log)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

	healthHandler := handler.NewHealthHandler(backend, log)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)

	wellKnown := handler.NewWellKnownHandler("http://localhost:8080", "http://localhost:8080/mcp")
	mux.HandleFunc("GET /.well-known/oauth-protected-resource", wellKnown.ProtectedResource)

	root := middleware.AuthMiddleware(tokenManager, cache.New(), log)(
		middleware.RateLimitMiddleware(limiter, log)(
			middleware.AuditMiddleware(audit.NewLogger(log))(mux),
		),
	)

	server := httptest.NewServer(root)
	t.Cleanup(func() {
		server.Close()
		limiter.Stop()
	})

	return &TestServerHelper{Server: server, Logger: log, limiter: limiter}
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// RegisterAndLogin provisions an account and returns its session token.
func (h *TestServerHelper) RegisterAndLogin(t *testing.T, email, username, tenant string) string {
	t.Helper()

	status, _ := h.PostJSON(t, "/api/auth/register", "", map[string]string{
		"email":    email,
		"username": username,
		"password": "Password123",
		"tenantId": tenant,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", email, status)
	}

	status, body := h.PostJSON(t, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "Password123",
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", email, status)
	}

	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in response %v", email, body)
	}
	return token
}

// PostJSON posts a JSON body, optionally with a bearer token, and decodes the
// JSON response.
func (h *TestServerHelper) PostJSON(t *testing.T, path, token string, payload any) (int, map[string]interface{}) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, h.URL()+path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.do(t, req)
}

// GetJSON fetches a path with an optional bearer token.
func (h *TestServerHelper) GetJSON(t *testing.T, path, token string) (int, map[string]interface{}) {
	t.Helper()

	req, _ := http.NewRequest(http.MethodGet, h.URL()+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.do(t, req)
}

// Delete issues a DELETE with an optional bearer token.
func (h *TestServerHelper) Delete(t *testing.T, path, token string) (int, map[string]interface{}) {
	t.Helper()

	req, _ := http.NewRequest(http.MethodDelete, h.URL()+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.do(t, req)
}

func (h *TestServerHelper) do(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

// ItemIDs extracts the item ids from an {"items": [...]} response body.
func ItemIDs(body map[string]interface{}) []string {
	raw, _ := body["items"].([]interface{})
	ids := make([]string, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]interface{}); ok {
			if id, ok := m["id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
