package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yourorg/tasklist/internal/domain"
	"github.com/yourorg/tasklist/internal/reliability/retry"
)

// PostgresBackend implements domain.Backend on PostgreSQL. To keep the same
// whole-collection contract as the KV backend, a Write deletes and reinserts
// the scope's rows inside one transaction. The transaction makes a single
// write atomic; it does not serialize concurrent writers to the same scope.
type PostgresBackend struct {
	db     *sql.DB
	logger *slog.Logger
	retry  *retry.Config
}

// NewPostgresBackend creates a Postgres-backed item store.
func NewPostgresBackend(db *sql.DB, logger *slog.Logger) *PostgresBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresBackend{
		db:     db,
		logger: logger,
		retry:  retry.DefaultConfig(),
	}
}

// EnsureSchema creates the items table if it does not exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			id         TEXT NOT NULL,
			tenant_id  TEXT NOT NULL,
			title      TEXT NOT NULL,
			assignee   TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (tenant_id, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure items schema: %w", err)
	}
	return nil
}

// Read loads the collection for a scope. No rows is an empty scope.
func (b *PostgresBackend) Read(ctx context.Context, scope string) ([]domain.Item, error) {
	return retry.Do(ctx, b.retry, b.logger, "postgres read", func(ctx context.Context) ([]domain.Item, error) {
		rows, err := b.db.QueryContext(ctx, `
			SELECT id, title, assignee, status, created_at, updated_at
			FROM items
			WHERE tenant_id = $1
		`, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to query scope %s: %w", scope, err)
		}
		defer rows.Close()

		var items []domain.Item
		for rows.Next() {
			var it domain.Item
			if err := rows.Scan(&it.ID, &it.Title, &it.Assignee, &it.Status, &it.CreatedAt, &it.UpdatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan item: %w", err)
			}
			items = append(items, it)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read scope %s: %w", scope, err)
		}
		return items, nil
	})
}

// Write replaces the collection for a scope.
func (b *PostgresBackend) Write(ctx context.Context, scope string, items []domain.Item) error {
	_, err := retry.Do(ctx, b.retry, b.logger, "postgres write", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.writeOnce(ctx, scope, items)
	})
	return err
}

func (b *PostgresBackend) writeOnce(ctx context.Context, scope string, items []domain.Item) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE tenant_id = $1`, scope); err != nil {
		return fmt.Errorf("failed to clear scope %s: %w", scope, err)
	}

	for _, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, tenant_id, title, assignee, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, it.ID, scope, it.Title, it.Assignee, string(it.Status), it.CreatedAt, it.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scope %s: %w", scope, err)
	}

	b.logger.Debug("scope persisted", slog.String("scope", scope), slog.Int("items", len(items)))
	return nil
}

// Ping checks database connectivity.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Scopes enumerates tenant scopes that hold at least one item.
func (b *PostgresBackend) Scopes(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT DISTINCT tenant_id FROM items`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan scope: %w", err)
		}
		scopes = append(scopes, s)
	}
	return scopes, rows.Err()
}
