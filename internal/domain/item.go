package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the workflow state of an item. Any state is reachable from any
// other state; there is no enforced transition order.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// statusRank orders statuses for collection sorting: earlier workflow states
// sort first so open work stays at the top of every returned collection.
var statusRank = map[Status]int{
	StatusBacklog:    0,
	StatusInProgress: 1,
	StatusReview:     2,
	StatusDone:       3,
}

// ParseStatus validates a raw status value from a client.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

// Rank returns the sort rank of the status. Unknown statuses sort last.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return len(statusRank)
}

// Item is one managed unit in a tenant's list. IDs are assigned by the store
// at creation and are unique within a tenant scope; timestamps are set by the
// store, never by callers.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Assignee  string    `json:"assignee,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sentinel errors for the request-terminal failure modes. NotFound is
// deliberately absent: update/delete on a missing id is a no-op that returns
// the unchanged collection, and resource resolution encodes absence as a
// "NOT FOUND" content payload.
var (
	ErrValidation       = errors.New("validation failed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

// Backend persists one opaque item collection per tenant scope. Read on an
// unknown scope returns an empty collection, not an error. Write replaces the
// whole collection for the scope.
type Backend interface {
	Read(ctx context.Context, scope string) ([]Item, error)
	Write(ctx context.Context, scope string, items []Item) error

	// Ping reports backend reachability for readiness checks.
	Ping(ctx context.Context) error

	// Scopes enumerates tenant scopes that currently hold a collection.
	// Used by the stats worker only; never by request paths.
	Scopes(ctx context.Context) ([]string, error)
}
