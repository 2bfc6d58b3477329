package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DateLayout is the fixed-width ISO layout every stored date uses.
const DateLayout = "2006-01-02"

const maxDescriptionLen = 200

type (
	TxType string

	// Transaction is a single dated income or expense entry.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TxType          `json:"type"`
		Date        string          `json:"date"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	}

	// Fields carries raw user input for a create or update, as typed in a form.
	Fields struct {
		Type        string `json:"type"`
		Date        string `json:"date"`
		Category    string `json:"category"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
	}

	// Draft is a validated set of replaceable transaction fields.
	Draft struct {
		Type        TxType
		Date        string
		Category    string
		Description string
		Amount      decimal.Decimal
	}
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("transaction not found")
	ErrEmptyDate      = errors.New("empty date")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrEmptyCategory  = errors.New("empty category")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyID        = errors.New("empty id")
	ErrDescriptionLen = errors.New("description too long (max 200 characters)")
)

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

// Unwrap exposes both ErrValidation and the field-specific cause.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// ParseTxType accepts "income" or "expense" in any case.
func ParseTxType(s string) (TxType, error) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t TxType) String() string {
	return string(t)
}

// ParseDate checks s is a real calendar date in YYYY-MM-DD form.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyDate
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", ErrInvalidDate
	}
	return d.Format(DateLayout), nil
}

// MonthKey returns the YYYY-MM bucket of an ISO date.
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// Month returns the YYYY-MM bucket the transaction falls in.
func (t Transaction) Month() string {
	return MonthKey(t.Date)
}

// ParseDraft validates raw input. Fields are checked in form order: date,
// type, category, amount. The first failure wins.
func ParseDraft(f Fields) (Draft, error) {
	date, err := ParseDate(f.Date)
	if err != nil {
		return Draft{}, invalid("date", err)
	}
	typ, err := ParseTxType(f.Type)
	if err != nil {
		return Draft{}, invalid("type", err)
	}
	category := strings.TrimSpace(f.Category)
	if category == "" {
		return Draft{}, invalid("category", ErrEmptyCategory)
	}
	desc := strings.TrimSpace(f.Description)
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return Draft{}, invalid("description", ErrDescriptionLen)
	}
	amount, err := ParseAmount(f.Amount)
	if err != nil {
		return Draft{}, invalid("amount", err)
	}
	return Draft{
		Type:        typ,
		Date:        date,
		Category:    category,
		Description: desc,
		Amount:      amount,
	}, nil
}

// Build returns the transaction stored under id with the draft's fields.
func (d Draft) Build(id string) Transaction {
	return Transaction{
		ID:          id,
		Type:        d.Type,
		Date:        d.Date,
		Category:    d.Category,
		Description: d.Description,
		Amount:      d.Amount,
	}
}

// Fields returns the current values for pre-filling an edit form.
func (t Transaction) Fields() Fields {
	return Fields{
		Type:        t.Type.String(),
		Date:        t.Date,
		Category:    t.Category,
		Description: t.Description,
		Amount:      t.Amount.String(),
	}
}

// Validate checks a transaction read back from a backing medium.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if _, err := ParseDate(t.Date); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
