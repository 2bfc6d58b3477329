// Package ledger owns the canonical transaction set and persists it through a
// backing medium.
package ledger

import (
	"context"
	"errors"
	"time"

	"myexpense/internal/core"
)

var (
	// ErrNoData is returned by a medium that has never been written.
	ErrNoData = errors.New("no persisted data")
	// ErrCorrupt is returned when persisted data cannot be decoded.
	ErrCorrupt = errors.New("persisted data is corrupt")
	// ErrOperationInFlight rejects a mutation while another one is pending.
	ErrOperationInFlight = errors.New("another operation is in flight")
	// ErrMedium wraps every failure reported by the backing medium.
	ErrMedium = errors.New("backing medium failed")
)

// Medium is the persistence target behind a Store. Implementations return
// core.ErrNotFound from Replace and Remove when the id is absent.
type Medium interface {
	List(ctx context.Context) ([]core.Transaction, error)
	Insert(ctx context.Context, t core.Transaction) error
	Replace(ctx context.Context, t core.Transaction) error
	Remove(ctx context.Context, id string) error
	// Seed writes records as the medium's initial content.
	Seed(ctx context.Context, records []core.Transaction) error
}

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpSeed   Op = "seed"
)

// Change describes a committed mutation.
type Change struct {
	Op          Op                 `json:"op"`
	Transaction core.Transaction   `json:"transaction,omitzero"`
	Records     []core.Transaction `json:"records,omitempty"`
	Revision    int64              `json:"revision"`
	At          time.Time          `json:"at"`
}

// Notifier is told about every committed change.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, c Change) error

func (f NotifierFunc) Notify(ctx context.Context, c Change) error { return f(ctx, c) }
