// Package session tracks the record being edited and turns form submissions
// into store operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"myexpense/internal/core"
	"myexpense/internal/log"
)

var ErrNotConfirmed = errors.New("deletion not confirmed")

// Ledger is the part of the record store the controller drives.
type Ledger interface {
	Get(id string) (core.Transaction, error)
	Create(ctx context.Context, d core.Draft) (core.Transaction, error)
	Update(ctx context.Context, id string, d core.Draft) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
	Load(ctx context.Context) ([]core.Transaction, error)
}

// Confirmer asks the user whether t may be deleted.
type Confirmer interface {
	ConfirmDelete(ctx context.Context, t core.Transaction) bool
}

type ConfirmFunc func(ctx context.Context, t core.Transaction) bool

func (f ConfirmFunc) ConfirmDelete(ctx context.Context, t core.Transaction) bool { return f(ctx, t) }

// State is Idle when EditingID is empty.
type State struct {
	EditingID string `json:"editing_id,omitempty"`
}

func (s State) Idle() bool { return s.EditingID == "" }

type Controller struct {
	ledger    Ledger
	confirmer Confirmer
	logger    *log.Logger

	mu      sync.Mutex
	editing string
}

func NewController(l Ledger, c Confirmer, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		ledger:    l,
		confirmer: c,
		logger:    logger.WithComponent(log.ComponentSession),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{EditingID: c.editing}
}

// BeginEdit enters Editing(id) and returns the values to pre-fill.
func (c *Controller) BeginEdit(id string) (core.Fields, error) {
	t, err := c.ledger.Get(id)
	if err != nil {
		return core.Fields{}, fmt.Errorf("begin edit %s: %w", id, err)
	}
	c.mu.Lock()
	c.editing = id
	c.mu.Unlock()
	c.logger.Debug("Edit started", log.FieldTxID, id)
	return t.Fields(), nil
}

func (c *Controller) Cancel() {
	c.mu.Lock()
	c.editing = ""
	c.mu.Unlock()
}

// Submit validates f and creates a record when idle or updates the record
// being edited. Invalid input leaves both the state and the store untouched.
func (c *Controller) Submit(ctx context.Context, f core.Fields) (core.Transaction, error) {
	d, err := core.ParseDraft(f)
	if err != nil {
		return core.Transaction{}, err
	}

	c.mu.Lock()
	id := c.editing
	c.mu.Unlock()

	if id == "" {
		return c.ledger.Create(ctx, d)
	}

	t, err := c.ledger.Update(ctx, id, d)
	switch {
	case err == nil:
		c.clearIf(id)
		return t, nil
	case errors.Is(err, core.ErrNotFound):
		c.clearIf(id)
		c.reconcile(ctx, id)
		return core.Transaction{}, err
	default:
		return core.Transaction{}, err
	}
}

// Delete removes id after the confirmer agreed.
func (c *Controller) Delete(ctx context.Context, id string) error {
	t, err := c.ledger.Get(id)
	if err != nil {
		c.clearIf(id)
		c.reconcile(ctx, id)
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if c.confirmer == nil || !c.confirmer.ConfirmDelete(ctx, t) {
		return ErrNotConfirmed
	}
	err = c.ledger.Delete(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		c.clearIf(id)
		c.reconcile(ctx, id)
		return err
	}
	if err != nil {
		return err
	}
	c.clearIf(id)
	return nil
}

func (c *Controller) clearIf(id string) {
	c.mu.Lock()
	if c.editing == id {
		c.editing = ""
	}
	c.mu.Unlock()
}

// reconcile reloads the store after the medium reported a vanished record.
func (c *Controller) reconcile(ctx context.Context, id string) {
	c.logger.WarnContext(ctx, "Record vanished, reloading", log.FieldTxID, id)
	if _, err := c.ledger.Load(ctx); err != nil {
		c.logger.ErrorContext(ctx, "Reload after missing record failed", log.FieldError, err.Error())
	}
}
