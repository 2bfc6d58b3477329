// Package views builds the derived dashboard data shown next to the ledger.
package views

import (
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"myexpense/internal/cache"
	"myexpense/internal/core"
	"myexpense/internal/log"
)

// Source is the read side of the ledger store.
type Source interface {
	Snapshot() ([]core.Transaction, int64)
}

// Dashboard is everything the UI renders for one filter. Rows and
// FilteredTotal follow the filter; the analytics cover every record.
type Dashboard struct {
	Filter        core.Filter          `json:"filter"`
	Rows          []core.Transaction   `json:"rows"`
	FilteredTotal decimal.Decimal      `json:"filtered_total"`
	Totals        core.Balance         `json:"totals"`
	Categories    []core.CategoryTotal `json:"categories"`
	Months        []core.MonthTotal    `json:"months"`
	Series        core.Series          `json:"series"`
	Revision      int64                `json:"revision"`
}

type Engine struct {
	src    Source
	cache  *cache.LRUCache[Dashboard]
	logger *log.Logger
}

// NewEngine caches up to size dashboards for ttl each. Entries are keyed by
// store revision, so a committed mutation makes older entries unreachable.
func NewEngine(src Source, size int, ttl time.Duration, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		src:    src,
		cache:  cache.NewLRUCache[Dashboard](size, ttl),
		logger: logger.WithComponent(log.ComponentViews),
	}
}

// Cache exposes the underlying cache for registration with a cleanup manager.
func (e *Engine) Cache() *cache.LRUCache[Dashboard] { return e.cache }

// Dashboard returns a copy the caller may modify; the cached entry is
// never handed out.
func (e *Engine) Dashboard(f core.Filter) Dashboard {
	records, rev := e.src.Snapshot()
	key := strconv.FormatInt(rev, 10) + "|" + f.Key()
	if d, ok := e.cache.Get(key); ok {
		return d.clone()
	}

	d := Build(records, f)
	d.Revision = rev
	e.cache.Set(key, d)
	e.logger.Debug("Dashboard computed",
		log.FieldRevision, rev,
		log.FieldCount, len(d.Rows),
		log.FieldFilterMonth, f.Month,
		log.FieldFilterType, string(f.Type),
		log.FieldFilterCat, f.Category,
	)
	return d.clone()
}

func (d Dashboard) clone() Dashboard {
	d.Rows = slices.Clone(d.Rows)
	d.Categories = slices.Clone(d.Categories)
	d.Months = slices.Clone(d.Months)
	d.Series = core.Series{
		Months:  slices.Clone(d.Series.Months),
		Income:  slices.Clone(d.Series.Income),
		Expense: slices.Clone(d.Series.Expense),
	}
	return d
}

// Build computes a dashboard without caching.
func Build(records []core.Transaction, f core.Filter) Dashboard {
	rows := core.Apply(records, f)
	return Dashboard{
		Filter:        f,
		Rows:          rows,
		FilteredTotal: core.Sum(rows),
		Totals:        core.IncomeExpenseBalance(records),
		Categories:    core.CategoryBreakdown(records),
		Months:        core.TotalsByMonth(records),
		Series:        core.MonthlySeries(records),
	}
}
