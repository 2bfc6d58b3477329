package core

import (
	"slices"

	"github.com/shopspring/decimal"
)

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// MonthTotal is the combined amount of every record in a YYYY-MM bucket.
type MonthTotal struct {
	Month  string
	Amount decimal.Decimal
}

// Balance holds the income and expense sums and their difference.
type Balance struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// Series is the per-month income and expense comparison. Income and Expense
// are aligned to Months; a month missing one type carries zero for it.
type Series struct {
	Months  []string
	Income  []decimal.Decimal
	Expense []decimal.Decimal
}

// Sum totals the amounts of records.
func Sum(records []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range records {
		total = total.Add(t.Amount)
	}
	return total
}

// TotalsByCategory sums amounts per category, keeping first-seen order.
// An empty typ aggregates every record.
func TotalsByCategory(records []Transaction, typ TxType) []CategoryTotal {
	index := map[string]int{}
	var out []CategoryTotal
	for _, t := range records {
		if typ != "" && t.Type != typ {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	return out
}

// CategoryBreakdown is the cost breakdown: expense records only.
func CategoryBreakdown(records []Transaction) []CategoryTotal {
	return TotalsByCategory(records, Expense)
}

// TotalsByMonth sums every record regardless of type per month, ordered by
// month key ascending.
func TotalsByMonth(records []Transaction) []MonthTotal {
	sums := map[string]decimal.Decimal{}
	for _, t := range records {
		m := t.Month()
		sums[m] = sums[m].Add(t.Amount)
	}
	months := sortedKeys(sums)
	out := make([]MonthTotal, 0, len(months))
	for _, m := range months {
		out = append(out, MonthTotal{Month: m, Amount: sums[m]})
	}
	return out
}

func IncomeExpenseBalance(records []Transaction) Balance {
	b := Balance{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range records {
		switch t.Type {
		case Income:
			b.Income = b.Income.Add(t.Amount)
		case Expense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}
	b.Balance = b.Income.Sub(b.Expense)
	return b
}

// MonthlySeries splits each month into income and expense, zero-filled.
func MonthlySeries(records []Transaction) Series {
	income := map[string]decimal.Decimal{}
	expense := map[string]decimal.Decimal{}
	seen := map[string]decimal.Decimal{}
	for _, t := range records {
		m := t.Month()
		seen[m] = decimal.Zero
		switch t.Type {
		case Income:
			income[m] = income[m].Add(t.Amount)
		case Expense:
			expense[m] = expense[m].Add(t.Amount)
		}
	}
	months := sortedKeys(seen)
	s := Series{
		Months:  months,
		Income:  make([]decimal.Decimal, len(months)),
		Expense: make([]decimal.Decimal, len(months)),
	}
	for i, m := range months {
		s.Income[i] = income[m].Add(decimal.Zero)
		s.Expense[i] = expense[m].Add(decimal.Zero)
	}
	return s
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
