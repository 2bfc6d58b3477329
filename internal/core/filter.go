package core

import (
	"errors"
	"slices"
	"strings"
	"time"
)

var ErrInvalidMonth = errors.New("invalid month")

// Filter selects transactions for a view. Zero-valued options match
// everything; set options are combined with AND.
type Filter struct {
	Month    string `json:"month,omitempty"`
	Type     TxType `json:"type,omitempty"`
	Category string `json:"category,omitempty"`
}

// ParseFilter builds a Filter from query-style strings. An empty value or
// "all" leaves the option unset.
func ParseFilter(month, typ, category string) (Filter, error) {
	var f Filter
	month = strings.TrimSpace(month)
	if month != "" && month != "all" {
		if _, err := time.Parse("2006-01", month); err != nil {
			return Filter{}, invalid("month", ErrInvalidMonth)
		}
		f.Month = month
	}
	typ = strings.TrimSpace(typ)
	if typ != "" && !strings.EqualFold(typ, "all") {
		t, err := ParseTxType(typ)
		if err != nil {
			return Filter{}, invalid("type", err)
		}
		f.Type = t
	}
	category = strings.TrimSpace(category)
	if category != "" && category != "all" {
		f.Category = category
	}
	return f, nil
}

func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Match reports whether t passes every set option.
func (f Filter) Match(t Transaction) bool {
	if f.Month != "" && !strings.HasPrefix(t.Date, f.Month) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// Key is a canonical representation usable as a cache key.
func (f Filter) Key() string {
	return "month=" + f.Month + "|type=" + string(f.Type) + "|category=" + f.Category
}

// Apply returns a new slice with the matching records ordered by date,
// newest first. Records sharing a date keep their input order.
func Apply(records []Transaction, f Filter) []Transaction {
	out := make([]Transaction, 0, len(records))
	for _, t := range records {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	SortByDateDesc(out)
	return out
}

// SortByDateDesc sorts in place with a stable sort. ISO dates compare
// correctly as strings.
func SortByDateDesc(records []Transaction) {
	slices.SortStableFunc(records, func(a, b Transaction) int {
		return strings.Compare(b.Date, a.Date)
	})
}
