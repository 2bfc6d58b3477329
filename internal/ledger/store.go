package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"myexpense/internal/core"
	"myexpense/internal/log"
)

// Store is the single owner of the transaction set. Mutations run one at a
// time and are committed to the visible set only after the medium confirmed
// them.
type Store struct {
	medium   Medium
	notifier Notifier
	now      func() time.Time
	newID    func() string
	logger   *log.Logger
	events   *log.StructuredLogger
	inflight *semaphore.Weighted

	mu       sync.RWMutex
	records  []core.Transaction
	revision int64
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(m Medium, opts ...Option) *Store {
	s := &Store{
		medium:   m,
		now:      time.Now,
		newID:    core.NewID,
		logger:   log.Default(),
		inflight: semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

func (s *Store) begin() error {
	if !s.inflight.TryAcquire(1) {
		return ErrOperationInFlight
	}
	return nil
}

func (s *Store) end() { s.inflight.Release(1) }

// Load replaces the in-memory set with the medium's content. A medium with no
// data, or whose payload cannot be decoded at all, is reinitialized with the
// seed set. Records that fail validation are skipped by the medium.
func (s *Store) Load(ctx context.Context) ([]core.Transaction, error) {
	records, seeded, rev, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if seeded {
		s.logger.InfoContext(ctx, "Seed set persisted",
			log.FieldOperation, log.OpSeed,
			log.FieldCount, len(records),
			log.FieldRevision, rev)
		s.notify(ctx, Change{Op: OpSeed, Records: slices.Clone(records), Revision: rev, At: s.now()})
	} else {
		s.logger.InfoContext(ctx, "Transactions loaded",
			log.FieldOperation, log.OpLoad,
			log.FieldCount, len(records),
			log.FieldRevision, rev)
	}
	return slices.Clone(records), nil
}

func (s *Store) load(ctx context.Context) ([]core.Transaction, bool, int64, error) {
	if err := s.begin(); err != nil {
		return nil, false, 0, err
	}
	defer s.end()

	seeded := false
	records, err := s.medium.List(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoData), errors.Is(err, ErrCorrupt):
		if errors.Is(err, ErrCorrupt) {
			s.logger.WarnContext(ctx, "Persisted data is corrupt, reinitializing with seed set",
				log.FieldError, err.Error())
		}
		records = core.Seed(s.now(), s.newID)
		if err := s.medium.Seed(ctx, records); err != nil {
			return nil, false, 0, fmt.Errorf("persist seed set: %w: %w", ErrMedium, err)
		}
		seeded = true
	default:
		return nil, false, 0, fmt.Errorf("load transactions: %w: %w", ErrMedium, err)
	}

	rev := s.commit(func() { s.records = slices.Clone(records) })
	return records, seeded, rev, nil
}

// Create stores a new transaction built from d under a fresh id.
func (s *Store) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	t, rev, err := s.insert(ctx, d)
	if err != nil {
		return core.Transaction{}, err
	}
	s.events.LogTransaction(ctx, log.OpCreate, t, rev)
	s.notify(ctx, Change{Op: OpCreate, Transaction: t, Revision: rev, At: s.now()})
	return t, nil
}

func (s *Store) insert(ctx context.Context, d core.Draft) (core.Transaction, int64, error) {
	if err := s.begin(); err != nil {
		return core.Transaction{}, 0, err
	}
	defer s.end()

	t := d.Build(s.newID())
	if err := s.medium.Insert(ctx, t); err != nil {
		return core.Transaction{}, 0, fmt.Errorf("insert transaction: %w: %w", ErrMedium, err)
	}
	rev := s.commit(func() { s.records = append(s.records, t) })
	return t, rev, nil
}

// Update replaces every field except the id of the transaction with id.
func (s *Store) Update(ctx context.Context, id string, d core.Draft) (core.Transaction, error) {
	t, rev, err := s.replace(ctx, id, d)
	if err != nil {
		return core.Transaction{}, err
	}
	s.events.LogTransaction(ctx, log.OpUpdate, t, rev)
	s.notify(ctx, Change{Op: OpUpdate, Transaction: t, Revision: rev, At: s.now()})
	return t, nil
}

func (s *Store) replace(ctx context.Context, id string, d core.Draft) (core.Transaction, int64, error) {
	if err := s.begin(); err != nil {
		return core.Transaction{}, 0, err
	}
	defer s.end()

	if _, ok := s.indexOf(id); !ok {
		return core.Transaction{}, 0, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	t := d.Build(id)
	if err := s.medium.Replace(ctx, t); err != nil {
		return core.Transaction{}, 0, fmt.Errorf("replace transaction: %w: %w", ErrMedium, err)
	}
	rev := s.commit(func() {
		if i := slices.IndexFunc(s.records, func(r core.Transaction) bool { return r.ID == id }); i >= 0 {
			s.records[i] = t
		}
	})
	return t, rev, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	t, rev, err := s.remove(ctx, id)
	if err != nil {
		return err
	}
	s.events.LogTransaction(ctx, log.OpDelete, t, rev)
	s.notify(ctx, Change{Op: OpDelete, Transaction: t, Revision: rev, At: s.now()})
	return nil
}

func (s *Store) remove(ctx context.Context, id string) (core.Transaction, int64, error) {
	if err := s.begin(); err != nil {
		return core.Transaction{}, 0, err
	}
	defer s.end()

	i, ok := s.indexOf(id)
	if !ok {
		return core.Transaction{}, 0, fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	s.mu.RLock()
	t := s.records[i]
	s.mu.RUnlock()

	if err := s.medium.Remove(ctx, id); err != nil {
		return core.Transaction{}, 0, fmt.Errorf("remove transaction: %w: %w", ErrMedium, err)
	}
	rev := s.commit(func() {
		s.records = slices.DeleteFunc(s.records, func(r core.Transaction) bool { return r.ID == id })
	})
	return t, rev, nil
}

func (s *Store) Get(id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.records {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

// Snapshot returns a copy of the set and the revision it was taken at.
func (s *Store) Snapshot() ([]core.Transaction, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), s.revision
}

func (s *Store) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) indexOf(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.records, func(r core.Transaction) bool { return r.ID == id })
	return i, i >= 0
}

func (s *Store) commit(apply func()) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply()
	s.revision++
	return s.revision
}

// notify is called after the in-flight guard is released.
func (s *Store) notify(ctx context.Context, c Change) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, c); err != nil {
		s.logger.WarnContext(ctx, "Change notification failed",
			log.FieldOperation, string(c.Op),
			log.FieldRevision, c.Revision,
			log.FieldError, err.Error())
	}
}
