// Package remote holds the wire shape shared by the remote collection media.
// Each subpackage adapts one document store to ledger.Medium.
package remote

import (
	"fmt"
	"strings"

	"myexpense/internal/core"
)

// Record is a transaction as stored in a remote collection. Every value is a
// string so amounts round-trip without float conversion.
type Record struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// Columns is the column order used by tabular stores.
var Columns = []string{"id", "date", "type", "category", "description", "amount"}

func FromTransaction(t core.Transaction) Record {
	return Record{
		ID:          t.ID,
		Type:        t.Type.String(),
		Date:        t.Date,
		Category:    t.Category,
		Description: t.Description,
		Amount:      t.Amount.String(),
	}
}

// Transaction validates r. A missing type reads as expense.
func (r Record) Transaction() (core.Transaction, error) {
	typ := core.Expense
	if strings.TrimSpace(r.Type) != "" {
		parsed, err := core.ParseTxType(r.Type)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("record %s: %w", r.ID, err)
		}
		typ = parsed
	}
	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	t := core.Transaction{
		ID:          strings.TrimSpace(r.ID),
		Type:        typ,
		Date:        strings.TrimSpace(r.Date),
		Category:    strings.TrimSpace(r.Category),
		Description: strings.TrimSpace(r.Description),
		Amount:      amount,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return t, nil
}

// Row returns the record in Columns order.
func (r Record) Row() []string {
	return []string{r.ID, r.Date, r.Type, r.Category, r.Description, r.Amount}
}

// RecordFromRow is the inverse of Row. Short rows are padded with blanks.
func RecordFromRow(cols []string) Record {
	get := func(i int) string {
		if i < len(cols) {
			return strings.TrimSpace(cols[i])
		}
		return ""
	}
	return Record{
		ID:          get(0),
		Date:        get(1),
		Type:        get(2),
		Category:    get(3),
		Description: get(4),
		Amount:      get(5),
	}
}

// Decode converts records, skipping the ones that fail validation. Skipped
// records are returned as errors so callers can log them.
func Decode(records []Record) ([]core.Transaction, []error) {
	out := make([]core.Transaction, 0, len(records))
	var skipped []error
	for _, r := range records {
		t, err := r.Transaction()
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		out = append(out, t)
	}
	core.SortByDateDesc(out)
	return out, skipped
}
