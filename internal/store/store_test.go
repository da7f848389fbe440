package store

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/yourorg/tasklist/internal/domain"
)

type fakeBackend struct {
	scopes  map[string][]domain.Item
	writes  int
	failAll bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{scopes: map[string][]domain.Item{}}
}

func (b *fakeBackend) Read(ctx context.Context, scope string) ([]domain.Item, error) {
	if b.failAll {
		return nil, errors.New("connection refused")
	}
	items := make([]domain.Item, len(b.scopes[scope]))
	copy(items, b.scopes[scope])
	return items, nil
}

func (b *fakeBackend) Write(ctx context.Context, scope string, items []domain.Item) error {
	if b.failAll {
		return errors.New("connection refused")
	}
	b.writes++
	stored := make([]domain.Item, len(items))
	copy(stored, items)
	b.scopes[scope] = stored
	return nil
}

func (b *fakeBackend) Ping(ctx context.Context) error { return nil }

func (b *fakeBackend) Scopes(ctx context.Context) ([]string, error) {
	out := []string{}
	for s := range b.scopes {
		out = append(out, s)
	}
	return out, nil
}

type recordingNotifier struct {
	published [][]domain.Item
	tenants   []string
}

func (n *recordingNotifier) Publish(tenantID string, items []domain.Item) {
	n.tenants = append(n.tenants, tenantID)
	n.published = append(n.published, items)
}

func newTestStore(t *testing.T) (*Store, *fakeBackend, *recordingNotifier) {
	t.Helper()
	backend := newFakeBackend()
	notifier := &recordingNotifier{}
	m := NewManager(backend, notifier, slog.Default())
	return m.Scope("tenant-1"), backend, notifier
}

func TestAddCreatesBacklogItem(t *testing.T) {
	s, _, notifier := newTestStore(t)

	items, err := s.Add(context.Background(), "  write the report  ", "alice")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	it := items[0]
	if it.ID == "" {
		t.Error("expected a generated id")
	}
	if it.Title != "write the report" {
		t.Errorf("expected trimmed title, got %q", it.Title)
	}
	if it.Status != domain.StatusBacklog {
		t.Errorf("expected backlog status, got %q", it.Status)
	}
	if it.CreatedAt.IsZero() || it.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
	if len(notifier.published) != 1 {
		t.Errorf("expected 1 published snapshot, got %d", len(notifier.published))
	}
}

func TestAddRejectsEmptyTitle(t *testing.T) {
	s, backend, _ := newTestStore(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := s.Add(context.Background(), title, ""); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("title %q: expected validation error, got %v", title, err)
		}
	}
	if backend.writes != 0 {
		t.Errorf("expected no writes on rejected input, got %d", backend.writes)
	}
}

func TestUpdateStatusMovesItem(t *testing.T) {
	s, _, _ := newTestStore(t)
	items, _ := s.Add(context.Background(), "task", "")
	id := items[0].ID

	updated, err := s.UpdateStatus(context.Background(), id, domain.StatusDone)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated[0].Status != domain.StatusDone {
		t.Errorf("expected done, got %q", updated[0].Status)
	}
	if !updated[0].UpdatedAt.After(items[0].UpdatedAt) && !updated[0].UpdatedAt.Equal(items[0].UpdatedAt) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestUpdateStatusUnknownIDIsNoOp(t *testing.T) {
	s, backend, _ := newTestStore(t)
	items, _ := s.Add(context.Background(), "task", "")
	writesBefore := backend.writes

	result, err := s.UpdateStatus(context.Background(), "no-such-id", domain.StatusDone)
	if err != nil {
		t.Fatalf("expected no error on unknown id, got %v", err)
	}
	if len(result) != len(items) {
		t.Fatalf("expected unchanged collection, got %d items", len(result))
	}
	if result[0].Status != items[0].Status {
		t.Errorf("expected status unchanged, got %q", result[0].Status)
	}
	if backend.writes != writesBefore {
		t.Errorf("expected no write on unknown id, got %d extra", backend.writes-writesBefore)
	}
}

func TestDeleteRemovesItem(t *testing.T) {
	s, _, _ := newTestStore(t)
	items, _ := s.Add(context.Background(), "first", "")
	s.Add(context.Background(), "second", "")

	result, err := s.Delete(context.Background(), items[0].ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 item left, got %d", len(result))
	}
	if result[0].Title != "second" {
		t.Errorf("wrong item deleted: %q remains", result[0].Title)
	}
}

func TestDeleteUnknownIDIsIdempotent(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.Add(context.Background(), "task", "")

	first, err := s.Delete(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	second, err := s.Delete(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("repeat delete failed: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("expected collection untouched, got %d then %d items", len(first), len(second))
	}
}

func TestCollectionSortedByStatusThenID(t *testing.T) {
	s, _, _ := newTestStore(t)

	items, _ := s.Add(context.Background(), "a", "")
	items, _ = s.Add(context.Background(), "b", "")
	items, _ = s.Add(context.Background(), "c", "")

	// Creation order within one status follows monotonic ids.
	for i := 1; i < len(items); i++ {
		if items[i-1].ID >= items[i].ID {
			t.Fatalf("ids not in creation order: %q >= %q", items[i-1].ID, items[i].ID)
		}
	}

	// Move the first item to done: it must sort after the backlog items.
	doneID := items[0].ID
	items, _ = s.UpdateStatus(context.Background(), doneID, domain.StatusDone)
	if items[len(items)-1].ID != doneID {
		t.Errorf("done item should sort last, order: %v", statuses(items))
	}

	// Move another into in-progress: order is backlog, in-progress, done.
	items, _ = s.UpdateStatus(context.Background(), items[0].ID, domain.StatusInProgress)
	got := statuses(items)
	want := []domain.Status{domain.StatusBacklog, domain.StatusInProgress, domain.StatusDone}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func statuses(items []domain.Item) []domain.Status {
	out := make([]domain.Status, len(items))
	for i, it := range items {
		out[i] = it.Status
	}
	return out
}

func TestTenantScopesAreIsolated(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend, nil, slog.Default())

	t1 := m.Scope("tenant-1")
	t2 := m.Scope("tenant-2")

	t1.Add(context.Background(), "only for tenant-1", "")

	items, err := t2.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("tenant-2 sees tenant-1's items: %d", len(items))
	}

	items, _ = t1.List(context.Background())
	if len(items) != 1 {
		t.Fatalf("tenant-1 lost its item: %d", len(items))
	}
}

func TestBackendFailureSurfacesAsStoreUnavailable(t *testing.T) {
	s, backend, _ := newTestStore(t)
	backend.failAll = true

	if _, err := s.List(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("list: expected store unavailable, got %v", err)
	}
	if _, err := s.Add(context.Background(), "task", ""); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("add: expected store unavailable, got %v", err)
	}
	if _, err := s.Delete(context.Background(), "x"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("delete: expected store unavailable, got %v", err)
	}
}
