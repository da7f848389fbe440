package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/tasklist/internal/domain"
)

// PostgresUserRepository implements domain.UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository.
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserRepository{db: db, logger: logger}
}

// EnsureSchema creates the users table if it does not exist.
func (r *PostgresUserRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			tenant_id     TEXT NOT NULL,
			is_active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure users schema: %w", err)
	}
	return nil
}

// Create creates a new user.
func (r *PostgresUserRepository) Create(user *domain.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, tenant_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.TenantID,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

const userColumns = `id, email, username, password_hash, tenant_id, created_at, updated_at, is_active`

func (r *PostgresUserRepository) getOne(query string, arg any) (*domain.User, error) {
	user := &domain.User{}

	err := r.db.QueryRow(query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.TenantID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.IsActive,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (r *PostgresUserRepository) GetByID(id string) (*domain.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email.
func (r *PostgresUserRepository) GetByEmail(email string) (*domain.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByUsername retrieves a user by username.
func (r *PostgresUserRepository) GetByUsername(username string) (*domain.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// Update updates a user's mutable fields.
func (r *PostgresUserRepository) Update(user *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, username = $3, password_hash = $4, is_active = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.IsActive,
	).Scan(&user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes a user.
func (r *PostgresUserRepository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ListByTenant lists all users in a tenant.
func (r *PostgresUserRepository) ListByTenant(tenantID string) ([]*domain.User, error) {
	rows, err := r.db.Query(`SELECT `+userColumns+` FROM users WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.PasswordHash,
			&user.TenantID,
			&user.CreatedAt,
			&user.UpdatedAt,
			&user.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
