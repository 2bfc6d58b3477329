package backend

import (
	"context"

	"myexpense/internal/ledger"
	"myexpense/internal/remote/gsheets"
	"myexpense/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds everything the ledger needs from a backend.
type BackendResult struct {
	// Medium persists the transaction set.
	Medium ledger.Medium
	// Prefs stores small local values such as the theme.
	Prefs storage.KV
	// Sheets is set when a spreadsheet is configured; exports go there.
	Sheets  *gsheets.Client
	Cleanup CleanupFunc
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the medium selected by config.Type.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateRemote creates a remote medium of the given type, used as the
	// mirror target by the worker.
	CreateRemote(ctx context.Context, config Config, typ BackendType) (ledger.Medium, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Local storage
	SQLiteDBPath string
	StorageKey   string
	ThemeKey     string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleExportSheetName    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Supabase
	SupabaseURL   string
	SupabaseKey   string
	SupabaseTable string

	// Azure Table Storage
	AzureTablesConnectionString string
	AzureTableName              string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	SheetsBackend   BackendType = "sheets"
	SupabaseBackend BackendType = "supabase"
	AzTablesBackend BackendType = "aztables"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, SheetsBackend, SupabaseBackend, AzTablesBackend:
		return true
	default:
		return false
	}
}

// IsRemote reports whether the medium lives outside the process host.
func (bt BackendType) IsRemote() bool {
	switch bt {
	case SheetsBackend, SupabaseBackend, AzTablesBackend:
		return true
	default:
		return false
	}
}
