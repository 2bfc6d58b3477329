// Package supabase stores transactions in a Supabase (PostgREST) table.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"myexpense/internal/core"
	"myexpense/internal/ledger"
	"myexpense/internal/remote"
)

const DefaultTable = "transactions"

// Medium expects a table with text columns id (primary key), type, date,
// category, description and amount.
type Medium struct {
	client *supabase.Client
	table  string
}

var _ ledger.Medium = (*Medium)(nil)

func New(url, key, table string) (*Medium, error) {
	if url == "" || key == "" {
		return nil, errors.New("missing SUPABASE_URL or SUPABASE_KEY")
	}
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	if table == "" {
		table = DefaultTable
	}
	return &Medium{client: client, table: table}, nil
}

// List returns every row, newest first.
func (m *Medium) List(ctx context.Context) ([]core.Transaction, error) {
	data, _, err := m.client.From(m.table).
		Select("*", "", false).
		Order("date", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", m.table, err)
	}
	var records []remote.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s rows: %w", m.table, err)
	}
	out, skipped := remote.Decode(records)
	for _, err := range skipped {
		slog.WarnContext(ctx, "Skipping invalid supabase row", "table", m.table, "error", err)
	}
	return out, nil
}

func (m *Medium) Insert(ctx context.Context, t core.Transaction) error {
	_, _, err := m.client.From(m.table).
		Insert(remote.FromTransaction(t), false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert into %s: %w", m.table, err)
	}
	slog.DebugContext(ctx, "Row inserted", "table", m.table, "id", t.ID)
	return nil
}

func (m *Medium) Replace(ctx context.Context, t core.Transaction) error {
	data, _, err := m.client.From(m.table).
		Update(remote.FromTransaction(t), "representation", "").
		Eq("id", t.ID).
		Execute()
	if err != nil {
		return fmt.Errorf("update %s in %s: %w", t.ID, m.table, err)
	}
	return affected(data)
}

func (m *Medium) Remove(ctx context.Context, id string) error {
	data, _, err := m.client.From(m.table).
		Delete("representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("delete %s from %s: %w", id, m.table, err)
	}
	return affected(data)
}

// Seed upserts records by id.
func (m *Medium) Seed(ctx context.Context, records []core.Transaction) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]remote.Record, 0, len(records))
	for _, t := range records {
		rows = append(rows, remote.FromTransaction(t))
	}
	_, _, err := m.client.From(m.table).
		Insert(rows, true, "id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", m.table, err)
	}
	slog.InfoContext(ctx, "Rows upserted", "table", m.table, "count", len(rows))
	return nil
}

// affected maps an empty representation to core.ErrNotFound.
func affected(data []byte) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parse representation: %w", err)
	}
	if len(rows) == 0 {
		return core.ErrNotFound
	}
	return nil
}
