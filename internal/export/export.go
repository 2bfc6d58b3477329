// Package export projects ledger rows into the flat shape consumed by file
// and spreadsheet writers.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"myexpense/internal/core"
)

const (
	DefaultPrefix = "MyExpense"
	ExtCSV        = "csv"
	ExtXLSX       = "xlsx"

	// SheetName is the single worksheet of an XLSX export.
	SheetName       = "Transactions"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Row is one exported transaction. Amount is already rounded and formatted.
type Row struct {
	Date        string
	Type        string
	Category    string
	Description string
	Amount      string
}

func Header() []string {
	return []string{"Date", "Type", "Category", "Description", "Amount"}
}

// ToRows keeps the input order, which is the order currently displayed.
func ToRows(records []core.Transaction) []Row {
	rows := make([]Row, 0, len(records))
	for _, t := range records {
		rows = append(rows, Row{
			Date:        t.Date,
			Type:        t.Type.String(),
			Category:    t.Category,
			Description: t.Description,
			Amount:      core.FormatAmount(core.Round2(t.Amount)),
		})
	}
	return rows
}

func (r Row) Values() []string {
	return []string{r.Date, r.Type, r.Category, r.Description, r.Amount}
}

// Table returns the header followed by every row.
func Table(rows []Row) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, Header())
	for _, r := range rows {
		out = append(out, r.Values())
	}
	return out
}

// FileName returns a date-stamped name such as MyExpense_2024-03-15.csv.
func FileName(prefix, ext string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format(core.DateLayout), ext)
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Table(rows)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a one-sheet workbook. Amounts are stored as numbers with
// two decimals so the spreadsheet can total them.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}
	amountCol, err := excelize.ColumnNumberToName(len(Header()))
	if err != nil {
		return fmt.Errorf("amount column: %w", err)
	}
	if err := f.SetColStyle(SheetName, amountCol, amountStyle); err != nil {
		return fmt.Errorf("style amount column: %w", err)
	}

	for i, values := range Table(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		line := make([]any, len(values))
		for j, v := range values {
			line[j] = v
		}
		if i > 0 {
			if amount, err := decimal.NewFromString(values[len(values)-1]); err == nil {
				line[len(line)-1] = amount.InexactFloat64()
			}
		}
		if err := f.SetSheetRow(SheetName, cell, &line); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// SheetWriter replaces a spreadsheet tab with a table of values.
type SheetWriter interface {
	WriteTable(ctx context.Context, values [][]string) error
}

func WriteSheet(ctx context.Context, sw SheetWriter, rows []Row) error {
	if err := sw.WriteTable(ctx, Table(rows)); err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}
	return nil
}
