package backend

import (
	"fmt"

	"myexpense/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		StorageKey:   appConfig.StorageKey,
		ThemeKey:     appConfig.ThemeKey,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleExportSheetName:    appConfig.GoogleExportSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		SupabaseURL:   appConfig.SupabaseURL,
		SupabaseKey:   appConfig.SupabaseKey,
		SupabaseTable: appConfig.SupabaseTable,

		AzureTablesConnectionString: appConfig.AzureTablesConnectionString,
		AzureTableName:              appConfig.AzureTableName,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type != MemoryBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for %s backend", c.Type)
	}
	return c.validateRemote(c.Type)
}

func (c Config) validateRemote(typ BackendType) error {
	switch typ {
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		if !c.sheetsCredentials() {
			return fmt.Errorf("either GoogleServiceAccountJSON or GoogleServiceAccountFile must be provided for sheets backend")
		}
	case SupabaseBackend:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("Supabase URL and key are required for supabase backend")
		}
	case AzTablesBackend:
		if c.AzureTablesConnectionString == "" {
			return fmt.Errorf("Azure Tables connection string is required for aztables backend")
		}
	}
	return nil
}

func (c Config) sheetsCredentials() bool {
	return c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
}

// SheetsConfigured reports whether a spreadsheet client can be built.
func (c Config) SheetsConfigured() bool {
	return c.GoogleSpreadsheetID != "" && c.sheetsCredentials()
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, SheetsBackend, SupabaseBackend, AzTablesBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
