package http

import (
	"github.com/shopspring/decimal"

	"myexpense/internal/core"
	"myexpense/internal/views"
)

// Amounts leave the API rounded to two decimals.
func money(d decimal.Decimal) string {
	return core.FormatAmount(core.Round2(d))
}

type transactionView struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Type:        t.Type.String(),
		Date:        t.Date,
		Category:    t.Category,
		Description: t.Description,
		Amount:      money(t.Amount),
	}
}

func newTransactionViews(records []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(records))
	for _, t := range records {
		out = append(out, newTransactionView(t))
	}
	return out
}

type listView struct {
	Filter        core.Filter       `json:"filter"`
	Rows          []transactionView `json:"rows"`
	FilteredTotal string            `json:"filtered_total"`
	Revision      int64             `json:"revision"`
}

type balanceView struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
}

type categoryView struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type monthView struct {
	Month  string `json:"month"`
	Amount string `json:"amount"`
}

type seriesView struct {
	Months  []string `json:"months"`
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

type summaryView struct {
	Totals     balanceView    `json:"totals"`
	Categories []categoryView `json:"categories"`
	Months     []monthView    `json:"months"`
	Series     seriesView     `json:"series"`
	Revision   int64          `json:"revision"`
}

func newListView(d views.Dashboard) listView {
	return listView{
		Filter:        d.Filter,
		Rows:          newTransactionViews(d.Rows),
		FilteredTotal: money(d.FilteredTotal),
		Revision:      d.Revision,
	}
}

func newSummaryView(d views.Dashboard) summaryView {
	v := summaryView{
		Totals: balanceView{
			Income:  money(d.Totals.Income),
			Expense: money(d.Totals.Expense),
			Balance: money(d.Totals.Balance),
		},
		Categories: make([]categoryView, 0, len(d.Categories)),
		Months:     make([]monthView, 0, len(d.Months)),
		Series: seriesView{
			Months:  append([]string{}, d.Series.Months...),
			Income:  make([]string, 0, len(d.Series.Income)),
			Expense: make([]string, 0, len(d.Series.Expense)),
		},
		Revision: d.Revision,
	}
	for _, c := range d.Categories {
		v.Categories = append(v.Categories, categoryView{Category: c.Category, Amount: money(c.Amount)})
	}
	for _, m := range d.Months {
		v.Months = append(v.Months, monthView{Month: m.Month, Amount: money(m.Amount)})
	}
	for _, a := range d.Series.Income {
		v.Series.Income = append(v.Series.Income, money(a))
	}
	for _, a := range d.Series.Expense {
		v.Series.Expense = append(v.Series.Expense, money(a))
	}
	return v
}

type editView struct {
	Editing bool        `json:"editing"`
	ID      string      `json:"id,omitempty"`
	Fields  core.Fields `json:"fields,omitzero"`
}

type themeView struct {
	Theme string `json:"theme"`
}
