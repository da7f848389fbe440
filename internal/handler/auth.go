package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/tasklist/internal/security/middleware"
	"github.com/yourorg/tasklist/internal/security/ratelimit"
	"github.com/yourorg/tasklist/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	limiter     *ratelimit.Limiter
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, limiter *ratelimit.Limiter, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authService: authService,
		limiter:     limiter,
		logger:      logger,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	TenantID string `json:"tenantId"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode register request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.authService.Register(req.Email, req.Username, req.Password, req.TenantID)
	if err != nil {
		h.logger.Info("registration failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("user registered",
		slog.String("user_id", result.UserID),
		slog.String("tenant_id", result.TenantID),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// Login handles POST /api/auth/login. Issued tokens are returned in the body
// and set as a session cookie, so both credential transports work.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode login request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	// Strict limit keyed by email to slow down credential stuffing.
	if h.limiter != nil && !h.limiter.AllowStrict("login:"+req.Email, 10, time.Minute) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   result.ExpiresIn,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user logged in",
		slog.String("user_id", result.UserID),
		slog.String("tenant_id", result.TenantID),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// ChangePasswordRequest represents change password request
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles POST /api/auth/change-password. Unlike the other
// auth endpoints this one requires a bound session.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.authService.ChangePassword(claims.UserID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("user changed password", slog.String("user_id", claims.UserID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "password changed successfully"})
}
