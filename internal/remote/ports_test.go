package remote

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myexpense/internal/core"
)

func TestRecordRoundTrip(t *testing.T) {
	tx := core.Transaction{
		ID: "a", Type: core.Income, Date: "2024-01-10",
		Category: "Salary", Description: "Jan", Amount: decimal.RequireFromString("35000.10"),
	}
	r := FromTransaction(tx)
	assert.Equal(t, "35000.1", r.Amount)

	back, err := RecordFromRow(r.Row()).Transaction()
	require.NoError(t, err)
	assert.Equal(t, tx.ID, back.ID)
	assert.True(t, tx.Amount.Equal(back.Amount))
	assert.Equal(t, tx.Type, back.Type)
}

func TestRecordFromShortRow(t *testing.T) {
	r := RecordFromRow([]string{"a", "2024-01-12", "", "Food", "", "12,50"})
	tx, err := r.Transaction()
	require.NoError(t, err)
	assert.Equal(t, core.Expense, tx.Type)
	assert.Equal(t, "12.50", core.FormatAmount(tx.Amount))

	_, err = RecordFromRow([]string{"b", "2024-01-12"}).Transaction()
	assert.Error(t, err)
}

func TestDecodeSkipsInvalidAndSorts(t *testing.T) {
	got, skipped := Decode([]Record{
		{ID: "old", Type: "expense", Date: "2024-01-01", Category: "Food", Amount: "1"},
		{ID: "bad", Type: "expense", Date: "nope", Category: "Food", Amount: "1"},
		{ID: "new", Type: "income", Date: "2024-02-01", Category: "Pay", Amount: "2"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
	assert.Len(t, skipped, 1)
}
