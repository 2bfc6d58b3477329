package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type seedEntry struct {
	daysAgo     int
	category    string
	description string
	amount      string
}

// First-run records, dated relative to the moment the ledger is created.
var seedEntries = []seedEntry{
	{3, "Food", "Lunch", "220.50"},
	{1, "Travel", "Auto fare", "60.00"},
	{12, "Bills", "Electricity", "1250.00"},
	{20, "Shopping", "T-shirt", "799.00"},
	{8, "Food", "Groceries", "640.75"},
}

// Seed returns the documented starter set used when no usable data exists.
// Every seed record is an expense.
func Seed(now time.Time, newID func() string) []Transaction {
	now = now.UTC()
	out := make([]Transaction, 0, len(seedEntries))
	for _, e := range seedEntries {
		out = append(out, Transaction{
			ID:          newID(),
			Type:        Expense,
			Date:        now.AddDate(0, 0, -e.daysAgo).Format(DateLayout),
			Category:    e.category,
			Description: e.description,
			Amount:      decimal.RequireFromString(e.amount),
		})
	}
	return out
}
