package repository

import (
	"context"
	"sync"

	"github.com/yourorg/tasklist/internal/domain"
)

// MemoryBackend implements domain.Backend in process memory. Used for local
// development and tests; state does not survive a restart.
type MemoryBackend struct {
	mu     sync.RWMutex
	scopes map[string][]domain.Item
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{scopes: make(map[string][]domain.Item)}
}

// Read returns a copy of the scope's collection.
func (b *MemoryBackend) Read(ctx context.Context, scope string) ([]domain.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stored, ok := b.scopes[scope]
	if !ok {
		return nil, nil
	}
	items := make([]domain.Item, len(stored))
	copy(items, stored)
	return items, nil
}

// Write replaces the scope's collection with a copy of items.
func (b *MemoryBackend) Write(ctx context.Context, scope string, items []domain.Item) error {
	stored := make([]domain.Item, len(items))
	copy(stored, items)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.scopes[scope] = stored
	return nil
}

// Ping always succeeds.
func (b *MemoryBackend) Ping(ctx context.Context) error {
	return nil
}

// Scopes enumerates scopes that hold a collection.
func (b *MemoryBackend) Scopes(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	scopes := make([]string, 0, len(b.scopes))
	for s := range b.scopes {
		scopes = append(scopes, s)
	}
	return scopes, nil
}
