// Package aztable stores transactions as Azure Table Storage entities.
package aztable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"myexpense/internal/core"
	"myexpense/internal/ledger"
	"myexpense/internal/remote"
)

const (
	DefaultTable = "transactions"
	partition    = "ledger"
)

// entity keeps amounts as strings; Table Storage has no decimal type.
type entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
	Type         string `json:"Type"`
	Date         string `json:"Date"`
	Category     string `json:"Category"`
	Description  string `json:"Description"`
	Amount       string `json:"Amount"`
}

type Medium struct {
	client *aztables.Client
	table  string
}

var _ ledger.Medium = (*Medium)(nil)

// New connects with a storage connection string and creates the table if
// it does not exist.
func New(ctx context.Context, connectionString, table string) (*Medium, error) {
	if connectionString == "" {
		return nil, errors.New("missing AZURE_TABLES_CONNECTION_STRING")
	}
	if table == "" {
		table = DefaultTable
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create table service client: %w", err)
	}
	if _, err := svc.CreateTable(ctx, table, nil); err != nil {
		var azErr *azcore.ResponseError
		if !errors.As(err, &azErr) || azErr.ErrorCode != "TableAlreadyExists" {
			return nil, fmt.Errorf("create table %s: %w", table, err)
		}
	}
	slog.InfoContext(ctx, "Azure table ready", "table", table)
	return &Medium{client: svc.NewClient(table), table: table}, nil
}

func (m *Medium) List(ctx context.Context) ([]core.Transaction, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s'", partition)
	pager := m.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

	var records []remote.Record
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list entities in %s: %w", m.table, err)
		}
		for _, raw := range resp.Entities {
			r, err := decodeEntity(raw)
			if err != nil {
				slog.WarnContext(ctx, "Skipping undecodable entity", "table", m.table, "error", err)
				continue
			}
			records = append(records, r)
		}
	}
	out, skipped := remote.Decode(records)
	for _, err := range skipped {
		slog.WarnContext(ctx, "Skipping invalid entity", "table", m.table, "error", err)
	}
	return out, nil
}

func (m *Medium) Insert(ctx context.Context, t core.Transaction) error {
	b, err := encodeEntity(t)
	if err != nil {
		return err
	}
	if _, err := m.client.AddEntity(ctx, b, nil); err != nil {
		return fmt.Errorf("add entity %s: %w", t.ID, err)
	}
	return nil
}

// Replace overwrites an existing entity. A missing entity is ErrNotFound.
func (m *Medium) Replace(ctx context.Context, t core.Transaction) error {
	b, err := encodeEntity(t)
	if err != nil {
		return err
	}
	_, err = m.client.UpdateEntity(ctx, b, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		return mapError(fmt.Sprintf("update entity %s", t.ID), err)
	}
	return nil
}

func (m *Medium) Remove(ctx context.Context, id string) error {
	if _, err := m.client.DeleteEntity(ctx, partition, id, nil); err != nil {
		return mapError(fmt.Sprintf("delete entity %s", id), err)
	}
	return nil
}

func (m *Medium) Seed(ctx context.Context, records []core.Transaction) error {
	for _, t := range records {
		b, err := encodeEntity(t)
		if err != nil {
			return err
		}
		if _, err := m.client.UpsertEntity(ctx, b, nil); err != nil {
			return fmt.Errorf("upsert entity %s: %w", t.ID, err)
		}
	}
	slog.InfoContext(ctx, "Entities upserted", "table", m.table, "count", len(records))
	return nil
}

func encodeEntity(t core.Transaction) ([]byte, error) {
	r := remote.FromTransaction(t)
	b, err := json.Marshal(entity{
		PartitionKey: partition,
		RowKey:       r.ID,
		Type:         r.Type,
		Date:         r.Date,
		Category:     r.Category,
		Description:  r.Description,
		Amount:       r.Amount,
	})
	if err != nil {
		return nil, fmt.Errorf("encode entity %s: %w", t.ID, err)
	}
	return b, nil
}

func decodeEntity(raw []byte) (remote.Record, error) {
	var e entity
	if err := json.Unmarshal(raw, &e); err != nil {
		return remote.Record{}, err
	}
	return remote.Record{
		ID:          e.RowKey,
		Type:        e.Type,
		Date:        e.Date,
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
	}, nil
}

func mapError(op string, err error) error {
	var azErr *azcore.ResponseError
	if errors.As(err, &azErr) && azErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
