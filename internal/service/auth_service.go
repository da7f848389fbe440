package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/tasklist/internal/domain"
	"github.com/yourorg/tasklist/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 24 * time.Hour

// AuthService handles account registration and login. It is the local
// issuer behind the identity verifier: tokens it signs are what the
// authorization gate later verifies.
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo domain.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// RegisterResult represents registration response
type RegisterResult struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	TenantID string `json:"tenant_id"`
	Token    string `json:"token"`
}

// LoginResult represents login response
type LoginResult struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TenantID  string `json:"tenant_id"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
	TokenType string `json:"token_type"`
}

// Register creates a new user account
func (s *AuthService) Register(email, username, password, tenantID string) (*RegisterResult, error) {
	if email == "" || password == "" || username == "" || tenantID == "" {
		return nil, errors.New("email, username, password, and tenant are required")
	}

	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, errors.New("email already registered")
	}
	if existing, err := s.userRepo.GetByUsername(username); err == nil && existing != nil {
		return nil, errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		TenantID:     tenantID,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	token, err := s.tokens.GenerateToken(user.TenantID, user.ID, user.Email, tokenLifetime)
	if err != nil {
		return nil, errors.New("failed to issue token")
	}

	return &RegisterResult{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		TenantID: user.TenantID,
		Token:    token,
	}, nil
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil || user == nil || !user.IsActive {
		// Generic error to prevent user enumeration
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := s.tokens.GenerateToken(user.TenantID, user.ID, user.Email, tokenLifetime)
	if err != nil {
		s.logger.Error("failed to issue token",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, errors.New("failed to issue token")
	}

	return &LoginResult{
		UserID:    user.ID,
		Email:     user.Email,
		TenantID:  user.TenantID,
		Token:     token,
		ExpiresIn: int(tokenLifetime.Seconds()),
		TokenType: "Bearer",
	}, nil
}

// ChangePassword rotates a user's password after checking the old one.
func (s *AuthService) ChangePassword(userID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil || user == nil {
		return errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return errors.New("invalid credentials")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to change password")
	}

	user.PasswordHash = string(hash)
	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("failed to update user", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}
	return nil
}
