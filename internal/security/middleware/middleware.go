package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/tasklist/internal/observability/metrics"
	"github.com/yourorg/tasklist/internal/security/audit"
	"github.com/yourorg/tasklist/internal/security/auth"
	"github.com/yourorg/tasklist/internal/security/ratelimit"
	"github.com/yourorg/tasklist/pkg/cache"
)

// SessionCookieName is the cookie the frontend stores the session token in.
// The gate accepts either this cookie or an Authorization bearer header.
const SessionCookieName = "session_jwt"

type TenantContextKey struct{}
type ClaimsContextKey struct{}

// identityCacheTTL caps how long a verified token is trusted without
// re-verification.
const identityCacheTTL = 30 * time.Second

// publicPath reports whether a path is reachable without a session. Every
// other path goes through credential verification before any handler runs.
func publicPath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics" ||
		path == "/api/auth/register" || path == "/api/auth/login" ||
		strings.HasPrefix(path, "/.well-known/")
}

// AuthMiddleware is the authorization gate: the single choke point that
// resolves a credential into a tenant scope before any store access, for the
// REST surface, the MCP surface and the websocket stream alike.
//
// The verifier's error is logged, never echoed; callers only ever see a
// generic 401 body.
func AuthMiddleware(verifier auth.Verifier, identities *cache.Cache, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			credential := extractCredential(r)
			if credential == "" {
				metrics.ObserveAuthFailure()
				unauthenticated(w)
				return
			}

			var claims *auth.Claims
			if identities != nil {
				if cached, ok := identities.Get(credential); ok {
					claims = cached.(*auth.Claims)
				}
			}

			if claims == nil {
				verified, err := verifier.ValidateToken(credential)
				if err != nil {
					log.Warn("credential verification failed",
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
					metrics.ObserveAuthFailure()
					unauthenticated(w)
					return
				}
				claims = verified
				if identities != nil {
					identities.Set(credential, claims, identityCacheTTL)
				}
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, TenantContextKey{}, claims.TenantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractCredential pulls the session token from the cookie or, failing
// that, the Authorization header.
func extractCredential(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if header := r.Header.Get("Authorization"); header != "" {
		if token, err := auth.ExtractToken(header); err == nil {
			return token
		}
	}
	return ""
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, `{"error":"unauthenticated"}`, http.StatusUnauthorized)
}

// RateLimitMiddleware applies the per-tenant sliding window after the gate
// has bound an identity. Public paths are not limited.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			tenantID := GetTenantFromContext(r.Context())
			if !limiter.Allow(tenantID) {
				log.Warn("rate limit exceeded", slog.String("tenant_id", tenantID))
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records mutating item operations per tenant and subject.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := GetTenantFromContext(r.Context())
			userID := ""
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				userID = claims.UserID
			}

			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/api/items":
				auditLog.LogAction(r.Context(), tenantID, userID, "create", "item", "", "initiated", "")
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/status"):
				auditLog.LogAction(r.Context(), tenantID, userID, "update_status", "item", auditItemID(r.URL.Path), "initiated", "")
			case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/items/"):
				auditLog.LogAction(r.Context(), tenantID, userID, "delete", "item", auditItemID(r.URL.Path), "initiated", "")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// auditItemID pulls the item id out of /api/items/{id} or
// /api/items/{id}/status. The middleware runs before the mux matches the
// route, so r.PathValue is not populated yet.
func auditItemID(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/items/")
	if !ok {
		return ""
	}
	rest = strings.TrimSuffix(rest, "/status")
	if strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

// GetTenantFromContext returns the tenant scope bound by the gate, or "".
func GetTenantFromContext(ctx context.Context) string {
	if t := ctx.Value(TenantContextKey{}); t != nil {
		return t.(string)
	}
	return ""
}

// GetClaimsFromContext returns the verified claims bound by the gate, or nil.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
