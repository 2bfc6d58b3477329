package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01-01", true},
		{"2024-02-29", true},
		{" 2025-12-31 ", true},
		{"2025-02-30", false},
		{"2025-1-5", false},
		{"01/02/2025", false},
		{"", false},
	}
	for i, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseTxType(t *testing.T) {
	for _, in := range []string{"income", "Income", " EXPENSE "} {
		if _, err := ParseTxType(in); err != nil {
			t.Fatalf("%q expected ok, got %v", in, err)
		}
	}
	for _, in := range []string{"", "transfer", "in"} {
		if _, err := ParseTxType(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
}

func TestParseDraft(t *testing.T) {
	good := Fields{Type: "expense", Date: "2025-01-01", Category: "Food", Description: " ok ", Amount: "12,50"}
	d, err := ParseDraft(good)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Description != "ok" || d.Type != Expense || !d.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected draft: %+v", d)
	}

	bads := []struct {
		f     Fields
		field string
	}{
		{Fields{Type: "expense", Date: "", Category: "c", Amount: "1"}, "date"},
		{Fields{Type: "expense", Date: "2025-13-01", Category: "c", Amount: "1"}, "date"},
		{Fields{Type: "", Date: "2025-01-01", Category: "c", Amount: "1"}, "type"},
		{Fields{Type: "expense", Date: "2025-01-01", Category: " ", Amount: "1"}, "category"},
		{Fields{Type: "expense", Date: "2025-01-01", Category: "c", Amount: "abc"}, "amount"},
		{Fields{Type: "expense", Date: "2025-01-01", Category: "c", Amount: "NaN"}, "amount"},
		{Fields{Type: "expense", Date: "2025-01-01", Category: "c", Amount: "-3"}, "amount"},
	}
	for i, tc := range bads {
		_, err := ParseDraft(tc.f)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("case %d expected field %q, got %q", i, tc.field, verr.Field)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected ErrValidation in chain", i)
		}
	}
}

func TestParseDraftDescriptionCountsCharacters(t *testing.T) {
	f := Fields{Type: "expense", Date: "2025-01-01", Category: "Food", Amount: "1"}

	f.Description = strings.Repeat("é", 150)
	d, err := ParseDraft(f)
	if err != nil {
		t.Fatalf("150 accented characters expected ok, got %v", err)
	}
	if d.Description != f.Description {
		t.Fatalf("description changed: %q", d.Description)
	}

	f.Description = strings.Repeat("é", 200)
	if _, err := ParseDraft(f); err != nil {
		t.Fatalf("200 characters expected ok, got %v", err)
	}

	f.Description = strings.Repeat("é", 201)
	_, err = ParseDraft(f)
	if !errors.Is(err, ErrDescriptionLen) {
		t.Fatalf("201 characters expected ErrDescriptionLen, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{ID: "x", Type: Income, Date: "2025-01-01", Category: "Salary", Amount: decimal.NewFromInt(1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Transaction{
		{ID: "", Type: Income, Date: "2025-01-01", Category: "c", Amount: decimal.NewFromInt(1)},
		{ID: "x", Type: "other", Date: "2025-01-01", Category: "c", Amount: decimal.NewFromInt(1)},
		{ID: "x", Type: Income, Date: "bad", Category: "c", Amount: decimal.NewFromInt(1)},
		{ID: "x", Type: Income, Date: "2025-01-01", Category: "", Amount: decimal.NewFromInt(1)},
		{ID: "x", Type: Income, Date: "2025-01-01", Category: "c", Amount: decimal.NewFromInt(-1)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestFieldsRoundTripThroughDraft(t *testing.T) {
	tx := Transaction{ID: "a", Type: Expense, Date: "2024-03-04", Category: "Bills", Description: "Gas", Amount: decimal.RequireFromString("80.10")}
	d, err := ParseDraft(tx.Fields())
	if err != nil {
		t.Fatalf("prefill fields should validate: %v", err)
	}
	got := d.Build("a")
	if got.Date != tx.Date || got.Category != tx.Category || !got.Amount.Equal(tx.Amount) || got.Type != tx.Type {
		t.Fatalf("expected %+v, got %+v", tx, got)
	}
}
