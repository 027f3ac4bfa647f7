package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/internal/persist"
	"github.com/huangsam/ehminer/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without a catalog or inputs.
func storeSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, err := contract.ParseDatabaseBackend(viper.GetString("store-backend"))
	if err != nil {
		return err
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	lockTimeout := contract.DefaultLockTimeout
	if s := strings.TrimSpace(viper.GetString("lock-timeout")); s != "" {
		if lockTimeout, err = time.ParseDuration(s); err != nil {
			return fmt.Errorf("invalid lock-timeout '%s': %w", s, err)
		}
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.LockTimeout = lockTimeout
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// sqliteFilePath returns the SQLite file the store reads and writes.
func sqliteFilePath() string {
	if cfg.StoreDBConnect != "" {
		return cfg.StoreDBConnect
	}
	return contract.GetDBFilePath()
}

// openStore opens the configured store with diagnostics on stderr.
func openStore() (*persist.Store, error) {
	logger := contract.NewLogger(os.Stderr, contract.DefaultLogFormat, cfg.LogLevel)
	return persist.NewStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.LockTimeout, logger)
}

// storeCmd focused on observation store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by ingest. This avoids catalog validation for
// simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the persisted observation store",
	Long: `Manage the tables that ingestion writes observations into.

Ehminer persists six tables:
- call_statistic - per call site counters
- call_info - per call name domain/project aggregates
- call_graph - raw caller -> callee edges
- prebranch / postbranch - call and logging co-occurrence
- branch_call - branch-guarded calls

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show row counts and connection info
  export  - Export tables to Parquet for analytics
  clear   - Remove all persisted observations
  migrate - Run database schema migrations

Examples:
  # Check store status
  ehminer store status

  # Export for analysis in pandas/DuckDB
  ehminer store export --output-file observations`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display row counts and connection details",
	Long: `Show detailed information about the observation store.

Displays:
- Backend type and connection status
- Row count of every table
- Total rows across all tables

Examples:
  # Check the default SQLite store
  ehminer store status

  # Check a PostgreSQL store
  EHMINER_STORE_BACKEND=postgresql EHMINER_STORE_DB_CONNECT="..." ehminer store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := openStore()
		if err != nil {
			contract.LogFatal("Failed to open store", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		persist.PrintStoreStatus(os.Stdout, status)
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all persisted observations",
	Long: `Delete all persisted observations from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops every table, migration history included

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  ehminer store export --output-file backup
  ehminer store clear`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := persist.ClearStore(cfg.StoreBackend, sqliteFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeExportCmd exports the store to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted observations to Parquet for analytics",
	Long: `Export every store table to Parquet format for use with analytics tools.

Each table is written to <output-file>.<table>.parquet.

Requires: --output-file parameter

Examples:
  # Export all tables
  ehminer store export --output-file observations

  # Use with DuckDB for analysis
  duckdb -c "SELECT * FROM read_parquet('observations.call_info.parquet') LIMIT 10"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := openStore()
		if err != nil {
			contract.LogFatal("Failed to open store", err)
		}
		defer func() { _ = store.Close() }()

		if err := persist.ExecuteExport(store, cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export store", err)
		}
	},
}

// storeMigrateCmd runs database migrations for the store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the observation store.

Ingestion creates missing tables on its own. Migrations are for stores managed
ahead of time, or for rolling the schema back.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  ehminer store migrate

  # Rollback to initial state
  ehminer store migrate --target-version 0`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		connStr := cfg.StoreDBConnect
		if cfg.StoreBackend == schema.SQLiteBackend {
			connStr = sqliteFilePath()
		}
		targetVersion := viper.GetInt("target-version")
		if err := persist.Migrate(cfg.StoreBackend, connStr, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migration", err)
		}
	},
}
