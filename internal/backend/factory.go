package backend

import (
	"context"
	"fmt"

	"myexpense/internal/ledger"
	"myexpense/internal/log"
	"myexpense/internal/remote/aztable"
	"myexpense/internal/remote/gsheets"
	"myexpense/internal/remote/supabase"
	"myexpense/internal/storage"
	"myexpense/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result = f.createMemoryBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	default:
		result, err = f.createRemoteBackend(ctx, config)
	}
	if err != nil {
		return nil, err
	}

	if result.Sheets == nil && config.SheetsConfigured() {
		cli, err := f.sheetsClient(ctx, config)
		if err != nil {
			f.logger.WarnContext(ctx, "Sheet export unavailable", log.FieldError, err.Error())
		} else {
			result.Sheets = cli
		}
	}
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	kv := memory.New()

	f.logger.Info("Initialized memory backend", log.FieldBackend, config.Type.String())

	return &BackendResult{
		Medium: ledger.NewSnapshotMedium(kv, config.StorageKey),
		Prefs:  kv,
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		log.FieldBackend, config.Type.String(),
		"db_path", config.SQLiteDBPath)

	return &BackendResult{
		Medium:  ledger.NewSnapshotMedium(repo, config.StorageKey),
		Prefs:   repo,
		Cleanup: repo.Close,
	}, nil
}

// createRemoteBackend keeps transactions remotely and preferences in SQLite.
func (f *DefaultFactory) createRemoteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	medium, err := f.CreateRemote(ctx, config, config.Type)
	if err != nil {
		return nil, err
	}
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize preference store: %w", err)
	}

	result := &BackendResult{
		Medium:  medium,
		Prefs:   repo,
		Cleanup: repo.Close,
	}
	if cli, ok := medium.(*gsheets.Client); ok {
		result.Sheets = cli
	}
	return result, nil
}

// CreateRemote implements Factory.CreateRemote
func (f *DefaultFactory) CreateRemote(ctx context.Context, config Config, typ BackendType) (ledger.Medium, error) {
	if !typ.IsRemote() {
		return nil, fmt.Errorf("backend %s is not a remote medium", typ)
	}
	if err := config.validateRemote(typ); err != nil {
		return nil, err
	}

	switch typ {
	case SheetsBackend:
		cli, err := f.sheetsClient(ctx, config)
		if err != nil {
			return nil, err
		}
		return cli, nil
	case SupabaseBackend:
		m, err := supabase.New(config.SupabaseURL, config.SupabaseKey, config.SupabaseTable)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Supabase medium: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Supabase medium",
			log.FieldBackend, typ.String(),
			"table", config.SupabaseTable)
		return m, nil
	case AzTablesBackend:
		m, err := aztable.New(ctx, config.AzureTablesConnectionString, config.AzureTableName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Azure Tables medium: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Azure Tables medium",
			log.FieldBackend, typ.String(),
			"table", config.AzureTableName)
		return m, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", typ)
}

func (f *DefaultFactory) sheetsClient(ctx context.Context, config Config) (*gsheets.Client, error) {
	cli, err := gsheets.New(ctx, gsheets.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		Sheet:              config.GoogleSheetName,
		ExportSheet:        config.GoogleExportSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets client", "spreadsheet_id", config.GoogleSpreadsheetID)
	return cli, nil
}
