package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the verified identity: the tenant scope every store
// operation is bound to, and the acting subject.
type Claims struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier resolves a raw credential into verified claims. The gate depends
// on this interface only, so the token scheme stays swappable.
type Verifier interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret string
	issuer string
}

// NewTokenManager creates a token manager.
func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "tasklist"
	}
	return &TokenManager{secret: secret, issuer: issuer}
}

// Issuer returns the configured token issuer.
func (tm *TokenManager) Issuer() string {
	return tm.issuer
}

// GenerateToken signs a session token for the given identity.
func (tm *TokenManager) GenerateToken(tenantID, userID, email string, expiresIn time.Duration) (string, error) {
	if tenantID == "" || userID == "" {
		return "", fmt.Errorf("tenant_id and user_id required")
	}
	now := time.Now()
	claims := Claims{
		TenantID: tenantID,
		UserID:   userID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.secret))
}

// ValidateToken parses and verifies a session token.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.TenantID == "" || claims.UserID == "" {
		return nil, fmt.Errorf("token missing tenant or subject")
	}
	return claims, nil
}

// ExtractToken pulls the bearer token out of an Authorization header value.
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
