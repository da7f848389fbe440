// Package store implements the session-scoped resource store: one ordered
// item collection per tenant scope, mutated by whole-collection
// read-modify-write against a pluggable backend. Every operation returns the
// full resulting collection so both protocol surfaces can answer with
// authoritative state.
package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/yourorg/tasklist/internal/domain"
	"github.com/yourorg/tasklist/internal/observability/metrics"
)

// Notifier receives the full persisted collection after every successful
// mutation. The events hub implements it.
type Notifier interface {
	Publish(tenantID string, items []domain.Item)
}

// Manager hands out tenant-scoped store views over one shared backend.
type Manager struct {
	backend  domain.Backend
	logger   *slog.Logger
	notifier Notifier
}

// NewManager creates a store manager. notifier may be nil.
func NewManager(backend domain.Backend, notifier Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{backend: backend, notifier: notifier, logger: logger}
}

// Scope returns the store view bound to one tenant. Views are cheap; one is
// typically built per request.
func (m *Manager) Scope(tenantID string) *Store {
	return &Store{
		scope:    tenantID,
		backend:  m.backend,
		notifier: m.notifier,
		logger:   m.logger.With(slog.String("tenant_id", tenantID)),
	}
}

// Store is the per-tenant view. Mutations follow read-modify-write over the
// whole collection; concurrent writers within a scope can lose updates, which
// matches the single-user-session usage the store is built for.
type Store struct {
	scope    string
	backend  domain.Backend
	notifier Notifier
	logger   *slog.Logger
}

// ULID entropy is shared and monotonic so ids created in one process sort in
// creation order.
var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

func newID(now time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), idEntropy).String()
}

// List returns the tenant's collection in canonical order.
func (s *Store) List(ctx context.Context) ([]domain.Item, error) {
	items, err := s.read(ctx)
	if err != nil {
		metrics.ObserveStoreOp("list", "error")
		return nil, err
	}
	sortItems(items)
	metrics.ObserveStoreOp("list", "ok")
	return items, nil
}

// Add appends a new backlog item and returns the resulting collection.
func (s *Store) Add(ctx context.Context, title, assignee string) ([]domain.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		metrics.ObserveStoreOp("add", "invalid")
		return nil, fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
	}

	items, err := s.read(ctx)
	if err != nil {
		metrics.ObserveStoreOp("add", "error")
		return nil, err
	}

	now := time.Now().UTC()
	items = append(items, domain.Item{
		ID:        newID(now),
		Title:     title,
		Assignee:  strings.TrimSpace(assignee),
		Status:    domain.StatusBacklog,
		CreatedAt: now,
		UpdatedAt: now,
	})

	if err := s.persist(ctx, items); err != nil {
		metrics.ObserveStoreOp("add", "error")
		return nil, err
	}
	metrics.ObserveStoreOp("add", "ok")
	return items, nil
}

// UpdateStatus moves one item to a new status. An unknown id is a no-op: the
// unchanged collection is returned and nothing is persisted.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.Status) ([]domain.Item, error) {
	items, err := s.read(ctx)
	if err != nil {
		metrics.ObserveStoreOp("update_status", "error")
		return nil, err
	}

	found := false
	for i := range items {
		if items[i].ID == id {
			items[i].Status = status
			items[i].UpdatedAt = time.Now().UTC()
			found = true
			break
		}
	}

	if !found {
		sortItems(items)
		metrics.ObserveStoreOp("update_status", "miss")
		return items, nil
	}

	if err := s.persist(ctx, items); err != nil {
		metrics.ObserveStoreOp("update_status", "error")
		return nil, err
	}
	metrics.ObserveStoreOp("update_status", "ok")
	return items, nil
}

// Delete removes one item. Deleting an unknown id is idempotent: the write
// still happens and the collection comes back unchanged.
func (s *Store) Delete(ctx context.Context, id string) ([]domain.Item, error) {
	items, err := s.read(ctx)
	if err != nil {
		metrics.ObserveStoreOp("delete", "error")
		return nil, err
	}

	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}

	if err := s.persist(ctx, kept); err != nil {
		metrics.ObserveStoreOp("delete", "error")
		return nil, err
	}
	metrics.ObserveStoreOp("delete", "ok")
	return kept, nil
}

func (s *Store) read(ctx context.Context) ([]domain.Item, error) {
	items, err := s.backend.Read(ctx, s.scope)
	if err != nil {
		s.logger.Error("backend read failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return items, nil
}

// persist writes the collection in canonical order and fans the new state out
// to stream subscribers. The slice is sorted in place.
func (s *Store) persist(ctx context.Context, items []domain.Item) error {
	sortItems(items)
	if err := s.backend.Write(ctx, s.scope, items); err != nil {
		s.logger.Error("backend write failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if s.notifier != nil {
		s.notifier.Publish(s.scope, items)
	}
	return nil
}

// sortItems orders a collection by workflow status, then id. ULIDs are
// time-ordered, so ties within a status fall back to creation order.
func sortItems(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Status.Rank() != items[j].Status.Rank() {
			return items[i].Status.Rank() < items[j].Status.Rank()
		}
		return items[i].ID < items[j].ID
	})
}
