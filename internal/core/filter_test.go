package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id string, typ TxType, date, category, amount string) Transaction {
	return Transaction{
		ID:       id,
		Type:     typ,
		Date:     date,
		Category: category,
		Amount:   decimal.RequireFromString(amount),
	}
}

func exampleSet() []Transaction {
	return []Transaction{
		tx("a", Income, "2024-01-10", "Salary", "35000"),
		tx("b", Expense, "2024-01-12", "Rent", "1200"),
		tx("c", Expense, "2024-02-01", "Food", "500"),
	}
}

func ids(records []Transaction) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestApply_NoOptionsReturnsAllDateDescending(t *testing.T) {
	got := Apply(exampleSet(), Filter{})
	assert.Equal(t, []string{"c", "b", "a"}, ids(got))
}

func TestApply_Idempotent(t *testing.T) {
	once := Apply(exampleSet(), Filter{})
	twice := Apply(once, Filter{})
	assert.Equal(t, once, twice)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := exampleSet()
	_ = Apply(in, Filter{})
	assert.Equal(t, []string{"a", "b", "c"}, ids(in))
}

func TestApply_MonthFilter(t *testing.T) {
	got := Apply(exampleSet(), Filter{Month: "2024-01"})
	assert.Equal(t, []string{"b", "a"}, ids(got))
}

func TestApply_ConjunctiveOptions(t *testing.T) {
	records := append(exampleSet(), tx("d", Expense, "2024-01-20", "Food", "30"))

	assert.Equal(t, []string{"d", "b"}, ids(Apply(records, Filter{Month: "2024-01", Type: Expense})))
	assert.Equal(t, []string{"d"}, ids(Apply(records, Filter{Month: "2024-01", Category: "Food"})))
	assert.Empty(t, Apply(records, Filter{Month: "2024-02", Type: Income}))
}

func TestApply_TiesKeepInputOrder(t *testing.T) {
	records := []Transaction{
		tx("x", Expense, "2024-05-01", "A", "1"),
		tx("y", Expense, "2024-05-02", "A", "1"),
		tx("z", Expense, "2024-05-01", "A", "1"),
	}
	assert.Equal(t, []string{"y", "x", "z"}, ids(Apply(records, Filter{})))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("2024-01", "Expense", "Food")
	require.NoError(t, err)
	assert.Equal(t, Filter{Month: "2024-01", Type: Expense, Category: "Food"}, f)

	f, err = ParseFilter("all", "all", "all")
	require.NoError(t, err)
	assert.True(t, f.IsZero())

	_, err = ParseFilter("2024-13", "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseFilter("", "transfer", "")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestFilterKeyDistinguishesOptions(t *testing.T) {
	a := Filter{Month: "2024-01"}.Key()
	b := Filter{Category: "2024-01"}.Key()
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Filter{Month: "2024-01"}.Key())
}
