// Package gsheets stores transactions as rows of a Google Sheets tab and
// writes spreadsheet exports to a second tab.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"myexpense/internal/core"
	"myexpense/internal/ledger"
	"myexpense/internal/remote"
)

const (
	DefaultSheet       = "Ledger"
	DefaultExportSheet = "Transactions"
)

// Config names the spreadsheet, its tabs and the service account credentials.
type Config struct {
	SpreadsheetID      string
	Sheet              string
	ExportSheet        string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	exportSheet   string

	// Serializes find-row-then-write sequences.
	mu            sync.Mutex
	headerWritten bool
}

var _ ledger.Medium = (*Client)(nil)

// New creates a client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID)
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing service, used with custom endpoints.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	sheet := strings.TrimSpace(cfg.Sheet)
	if sheet == "" {
		sheet = DefaultSheet
	}
	export := strings.TrimSpace(cfg.ExportSheet)
	if export == "" {
		export = DefaultExportSheet
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         sheet,
		exportSheet:   export,
	}
}

// credentials resolves inline JSON first, then a file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func credentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// List reads every data row below the header. Rows that do not describe a
// valid transaction are skipped.
func (c *Client) List(ctx context.Context) ([]core.Transaction, error) {
	rng := fmt.Sprintf("%s!A2:F", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	records := make([]remote.Record, 0, len(resp.Values))
	for _, row := range resp.Values {
		cols := toStrings(row)
		if len(cols) == 0 || strings.TrimSpace(cols[0]) == "" {
			continue
		}
		records = append(records, remote.RecordFromRow(cols))
	}
	out, skipped := remote.Decode(records)
	for _, err := range skipped {
		slog.WarnContext(ctx, "Skipping invalid sheet row", "sheet", c.sheet, "error", err)
	}
	return out, nil
}

func (c *Client) Insert(ctx context.Context, t core.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureHeader(ctx); err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A:F", c.sheet)
	vr := &gsheet.ValueRange{Values: [][]any{toAny(remote.FromTransaction(t).Row())}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	return nil
}

func (c *Client) Replace(ctx context.Context, t core.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row, err := c.findRow(ctx, t.ID)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d:F%d", c.sheet, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{toAny(remote.FromTransaction(t).Row())}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// Remove clears the row holding id. Cleared rows are skipped by List.
func (c *Client) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d:F%d", c.sheet, row, row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// Seed rewrites the tab with a header and records.
func (c *Client) Seed(ctx context.Context, records []core.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := make([][]string, 0, len(records)+1)
	values = append(values, remote.Columns)
	for _, t := range records {
		values = append(values, remote.FromTransaction(t).Row())
	}
	if err := c.replaceTab(ctx, c.sheet, values); err != nil {
		return err
	}
	c.headerWritten = true
	return nil
}

// WriteTable replaces the export tab with values, header first.
func (c *Client) WriteTable(ctx context.Context, values [][]string) error {
	return c.replaceTab(ctx, c.exportSheet, values)
}

func (c *Client) replaceTab(ctx context.Context, sheet string, values [][]string) error {
	clearRng := fmt.Sprintf("%s!A:Z", sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}
	if len(values) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(values))
	for _, v := range values {
		rows = append(rows, toAny(v))
	}
	rng := fmt.Sprintf("%s!A1", sheet)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Sheet tab rewritten", "sheet", sheet, "rows", len(values))
	return nil
}

// ensureHeader writes the column header into an empty tab so appended rows
// never land on row 1.
func (c *Client) ensureHeader(ctx context.Context) error {
	if c.headerWritten {
		return nil
	}
	rng := fmt.Sprintf("%s!A1:F1", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		vr := &gsheet.ValueRange{Values: [][]any{toAny(remote.Columns)}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("write header %s: %w", rng, err)
		}
	}
	c.headerWritten = true
	return nil
}

// findRow returns the 1-based sheet row whose id column equals id.
func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	// Row 1 is the header.
	for i, row := range resp.Values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, core.ErrNotFound
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
