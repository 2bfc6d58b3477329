// Package worker mirrors committed ledger changes into a secondary remote
// store.
package worker

import (
	"context"
	"errors"
	"fmt"

	"myexpense/internal/amqp"
	"myexpense/internal/core"
	"myexpense/internal/ledger"
	"myexpense/internal/log"
)

// Lister reads the authoritative record set for reconciliation.
type Lister interface {
	List(ctx context.Context) ([]core.Transaction, error)
}

// MirrorWorker applies change messages to a remote medium. Applying is
// idempotent, so a redelivered message leaves the mirror unchanged and the
// last message applied wins.
type MirrorWorker struct {
	remote ledger.Medium
	source Lister
	logger *log.Logger
}

func NewMirrorWorker(remote ledger.Medium, source Lister, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &MirrorWorker{
		remote: remote,
		source: source,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange processes a single change message from AMQP
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		log.FieldOperation, string(msg.Op),
		log.FieldTxID, msg.Transaction.ID,
		log.FieldRevision, msg.Revision)

	switch msg.Op {
	case ledger.OpCreate, ledger.OpUpdate:
		if err := w.upsert(ctx, msg.Transaction); err != nil {
			return fmt.Errorf("mirror %s: %w", msg.Op, err)
		}
	case ledger.OpDelete:
		err := w.remote.Remove(ctx, msg.Transaction.ID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("mirror delete: %w", err)
		}
	case ledger.OpSeed:
		if err := w.remote.Seed(ctx, msg.Records); err != nil {
			return fmt.Errorf("mirror seed: %w", err)
		}
	default:
		return fmt.Errorf("mirror: %w: unknown op %q", amqp.ErrInvalidMessage, msg.Op)
	}
	return nil
}

func (w *MirrorWorker) upsert(ctx context.Context, t core.Transaction) error {
	err := w.remote.Replace(ctx, t)
	if errors.Is(err, core.ErrNotFound) {
		err = w.remote.Insert(ctx, t)
	}
	return err
}

// Reconcile pushes the full local set to the mirror. It recovers changes
// published while the worker was down or lost by the broker.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	if w.source == nil {
		return nil
	}
	records, err := w.source.List(ctx)
	if errors.Is(err, ledger.ErrNoData) {
		w.logger.InfoContext(ctx, "No local data to reconcile")
		return nil
	}
	if err != nil {
		return fmt.Errorf("list local transactions: %w", err)
	}
	if err := w.remote.Seed(ctx, records); err != nil {
		return fmt.Errorf("reconcile mirror: %w", err)
	}

	// Seed upserts on some mirrors. Rows the local set no longer has go here.
	mirrored, err := w.remote.List(ctx)
	if err != nil && !errors.Is(err, ledger.ErrNoData) {
		return fmt.Errorf("list mirror: %w", err)
	}
	local := make(map[string]struct{}, len(records))
	for _, t := range records {
		local[t.ID] = struct{}{}
	}
	removed := 0
	for _, t := range mirrored {
		if _, ok := local[t.ID]; ok {
			continue
		}
		if err := w.remote.Remove(ctx, t.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("reconcile remove %s: %w", t.ID, err)
		}
		removed++
	}

	w.logger.InfoContext(ctx, "Mirror reconciled",
		log.FieldOperation, log.OpSync,
		log.FieldCount, len(records),
		log.FieldRemoved, removed)
	return nil
}
