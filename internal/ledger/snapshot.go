package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"myexpense/internal/core"
	"myexpense/internal/storage"
)

const (
	DefaultDataKey = "myexpense_data_v1"
	backupSuffix   = "_backup"
)

// SnapshotMedium keeps the whole set as one JSON array under a single key.
// Every write rewrites the array.
type SnapshotMedium struct {
	kv  storage.KV
	key string
	mu  sync.Mutex
}

var _ Medium = (*SnapshotMedium)(nil)

func NewSnapshotMedium(kv storage.KV, key string) *SnapshotMedium {
	if key == "" {
		key = DefaultDataKey
	}
	return &SnapshotMedium{kv: kv, key: key}
}

// storedRecord accepts amounts written as JSON numbers or strings, and
// records from the expense-only schema that carry no type.
type storedRecord struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Date        string           `json:"date"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
}

func (m *SnapshotMedium) List(ctx context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read(ctx)
}

func (m *SnapshotMedium) Insert(ctx context.Context, t core.Transaction) error {
	return m.modify(ctx, func(records []core.Transaction) ([]core.Transaction, error) {
		if slices.ContainsFunc(records, func(r core.Transaction) bool { return r.ID == t.ID }) {
			return nil, fmt.Errorf("insert %s: duplicate id", t.ID)
		}
		return append(records, t), nil
	})
}

func (m *SnapshotMedium) Replace(ctx context.Context, t core.Transaction) error {
	return m.modify(ctx, func(records []core.Transaction) ([]core.Transaction, error) {
		i := slices.IndexFunc(records, func(r core.Transaction) bool { return r.ID == t.ID })
		if i < 0 {
			return nil, core.ErrNotFound
		}
		records[i] = t
		return records, nil
	})
}

func (m *SnapshotMedium) Remove(ctx context.Context, id string) error {
	return m.modify(ctx, func(records []core.Transaction) ([]core.Transaction, error) {
		n := len(records)
		records = slices.DeleteFunc(records, func(r core.Transaction) bool { return r.ID == id })
		if len(records) == n {
			return nil, core.ErrNotFound
		}
		return records, nil
	})
}

func (m *SnapshotMedium) Seed(ctx context.Context, records []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(ctx, records)
}

func (m *SnapshotMedium) modify(ctx context.Context, fn func([]core.Transaction) ([]core.Transaction, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.read(ctx)
	if errors.Is(err, ErrNoData) {
		records, err = nil, nil
	}
	if err != nil {
		return err
	}
	records, err = fn(records)
	if err != nil {
		return err
	}
	return m.write(ctx, records)
}

func (m *SnapshotMedium) read(ctx context.Context) ([]core.Transaction, error) {
	raw, err := m.kv.Get(ctx, m.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.key, err)
	}

	records, skipped, err := DecodeSnapshot([]byte(raw))
	for _, e := range skipped {
		slog.WarnContext(ctx, "Skipping invalid stored record", "key", m.key, "error", e)
	}
	if err != nil || len(skipped) > 0 {
		// The next write drops whatever did not decode.
		if berr := m.kv.Put(ctx, m.backupKey(), raw); berr != nil {
			return nil, fmt.Errorf("back up %s: %w", m.key, berr)
		}
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (m *SnapshotMedium) backupKey() string { return m.key + backupSuffix }

func (m *SnapshotMedium) write(ctx context.Context, records []core.Transaction) error {
	if records == nil {
		records = []core.Transaction{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := m.kv.Put(ctx, m.key, string(b)); err != nil {
		return fmt.Errorf("write %s: %w", m.key, err)
	}
	return nil
}

// DecodeSnapshot parses a persisted array. A payload that is not an array
// is ErrCorrupt. Invalid records and repeated ids are skipped and reported
// one error each; the first occurrence of an id wins.
func DecodeSnapshot(b []byte) ([]core.Transaction, []error, error) {
	if strings.TrimSpace(string(b)) == "null" {
		return nil, nil, fmt.Errorf("%w: null payload", ErrCorrupt)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var skipped []error
	seen := make(map[string]struct{}, len(elems))
	out := make([]core.Transaction, 0, len(elems))
	for i, elem := range elems {
		t, err := decodeRecord(elem)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if _, dup := seen[t.ID]; dup {
			skipped = append(skipped, fmt.Errorf("record %d: duplicate id %s", i, t.ID))
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out, skipped, nil
}

func decodeRecord(elem json.RawMessage) (core.Transaction, error) {
	var r storedRecord
	if err := json.Unmarshal(elem, &r); err != nil {
		return core.Transaction{}, err
	}
	if r.Amount == nil {
		return core.Transaction{}, errors.New("no amount")
	}
	typ := core.Expense
	if strings.TrimSpace(r.Type) != "" {
		parsed, err := core.ParseTxType(r.Type)
		if err != nil {
			return core.Transaction{}, err
		}
		typ = parsed
	}
	t := core.Transaction{
		ID:          r.ID,
		Type:        typ,
		Date:        r.Date,
		Category:    r.Category,
		Description: r.Description,
		Amount:      *r.Amount,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
