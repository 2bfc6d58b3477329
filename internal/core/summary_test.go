package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestIncomeExpenseBalance_Example(t *testing.T) {
	b := IncomeExpenseBalance(exampleSet())
	assertDecimal(t, "35000", b.Income)
	assertDecimal(t, "1700", b.Expense)
	assertDecimal(t, "33300", b.Balance)
}

func TestIncomeExpenseBalance_Identity(t *testing.T) {
	sets := [][]Transaction{
		nil,
		exampleSet(),
		Seed(time.Now(), NewID),
		{tx("a", Income, "2024-01-01", "x", "0.1"), tx("b", Expense, "2024-01-01", "x", "0.2")},
	}
	for _, records := range sets {
		b := IncomeExpenseBalance(records)
		assert.True(t, b.Income.Sub(b.Expense).Equal(b.Balance))
	}
}

func TestTotalsByMonth_Combined(t *testing.T) {
	got := TotalsByMonth(exampleSet())
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01", got[0].Month)
	assertDecimal(t, "36200", got[0].Amount)
	assert.Equal(t, "2024-02", got[1].Month)
	assertDecimal(t, "500", got[1].Amount)
}

func TestTotalsByMonth_KeysAndSum(t *testing.T) {
	records := append(exampleSet(),
		tx("d", Expense, "2023-12-31", "Gifts", "99.99"),
		tx("e", Income, "2024-02-15", "Bonus", "0.01"),
	)
	got := TotalsByMonth(records)

	var months []string
	total := decimal.Zero
	for _, m := range got {
		months = append(months, m.Month)
		total = total.Add(m.Amount)
	}
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-02"}, months)
	assert.True(t, Sum(records).Equal(total))
}

func TestMonthlySeries_ZeroFilled(t *testing.T) {
	s := MonthlySeries(exampleSet())
	assert.Equal(t, []string{"2024-01", "2024-02"}, s.Months)
	require.Len(t, s.Income, 2)
	require.Len(t, s.Expense, 2)
	assertDecimal(t, "35000", s.Income[0])
	assertDecimal(t, "1200", s.Expense[0])
	assertDecimal(t, "0", s.Income[1])
	assertDecimal(t, "500", s.Expense[1])
}

func TestCategoryBreakdown_ExpenseOnlyFirstSeenOrder(t *testing.T) {
	records := []Transaction{
		tx("a", Expense, "2024-01-01", "Food", "10.10"),
		tx("b", Income, "2024-01-02", "Salary", "1000"),
		tx("c", Expense, "2024-01-03", "Travel", "5"),
		tx("d", Expense, "2024-01-04", "Food", "0.20"),
	}
	got := CategoryBreakdown(records)
	require.Len(t, got, 2)
	assert.Equal(t, "Food", got[0].Category)
	assertDecimal(t, "10.30", got[0].Amount)
	assert.Equal(t, "Travel", got[1].Category)

	all := TotalsByCategory(records, "")
	assert.Len(t, all, 3)
}

func TestSum_ExactAccumulation(t *testing.T) {
	var records []Transaction
	for i := 0; i < 10; i++ {
		records = append(records, tx("x", Expense, "2024-01-01", "c", "0.1"))
	}
	assertDecimal(t, "1", Sum(records))
}

func TestSeed(t *testing.T) {
	now := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	n := 0
	seed := Seed(now, func() string { n++; return string(rune('a' + n)) })
	require.Len(t, seed, 5)
	for _, s := range seed {
		require.NoError(t, s.Validate())
		assert.Equal(t, Expense, s.Type)
	}
	assert.Equal(t, "2024-03-12", seed[0].Date)
	assert.Equal(t, "Lunch", seed[0].Description)
	assertDecimal(t, "2970.25", Sum(seed))
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
