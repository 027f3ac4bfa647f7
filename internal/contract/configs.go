package contract

import (
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/ehminer/schema"
)

// Default values for configuration.
const (
	DefaultMaxCapacity = 1000
	MaxMaxCapacity     = 1 << 20
	DefaultLockTimeout = 10 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// DefaultWorkers is the default number of concurrent input decoders.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for ingestion.
// This struct remains the "final, validated" config.
type Config struct {
	Inputs      []string
	CatalogFile string
	Catalog     []schema.CatalogEntry
	MatchMode   schema.MatchMode
	MaxCapacity int

	// Records lists the recorders that are switched on
	Records map[schema.RecordKind]bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext
	LockTimeout    time.Duration

	Workers    int
	Dump       bool
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	LogLevel  slog.Level
	LogFormat string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	Inputs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	CatalogFile    string `mapstructure:"catalog-file"`
	PathMatch      string `mapstructure:"path-match"`
	MaxCapacity    int    `mapstructure:"max-capacity"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	LockTimeout    string `mapstructure:"lock-timeout"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`

	// --- Fields from ingestCmd.Flags() ---
	Record  string `mapstructure:"record"`
	Workers int    `mapstructure:"workers"`
	Dump    bool   `mapstructure:"dump"`

	// --- Catalog declared inline in the config file ---
	Catalog []schema.CatalogEntry `mapstructure:"catalog"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Inputs != nil {
		clone.Inputs = append([]string(nil), c.Inputs...)
	}
	if c.Catalog != nil {
		clone.Catalog = make([]schema.CatalogEntry, len(c.Catalog))
		for i, entry := range c.Catalog {
			clone.Catalog[i] = schema.CatalogEntry{
				Domain:   entry.Domain,
				Projects: append([]string(nil), entry.Projects...),
			}
		}
	}
	if c.Records != nil {
		clone.Records = make(map[schema.RecordKind]bool, len(c.Records))
		maps.Copy(clone.Records, c.Records)
	}
	return &clone
}

// Enabled reports whether the given recorder is switched on.
func (c *Config) Enabled(kind schema.RecordKind) bool {
	return c.Records[kind]
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processRecords(cfg, input); err != nil {
		return err
	}
	if err := processLogging(cfg, input); err != nil {
		return err
	}
	return processCatalog(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseDatabaseBackend maps a raw backend name onto a known backend.
// An empty name selects SQLite.
func ParseDatabaseBackend(s string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(s)))
	if backend == "" {
		return schema.SQLiteBackend, nil
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", s)
	}
	return backend, nil
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Inputs = input.Inputs
	cfg.CatalogFile = strings.TrimSpace(input.CatalogFile)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Dump = input.Dump

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Match mode ---
	cfg.MatchMode = schema.MatchMode(strings.ToLower(input.PathMatch))
	if cfg.MatchMode == "" {
		cfg.MatchMode = schema.StrictMatch
	}
	if _, ok := schema.ValidMatchModes[cfg.MatchMode]; !ok {
		return fmt.Errorf("invalid path match '%s'. must be strict or prefix", input.PathMatch)
	}

	// --- 2. Capacity ---
	if input.MaxCapacity <= 0 || input.MaxCapacity > MaxMaxCapacity {
		return fmt.Errorf("max-capacity must be greater than 0 and cannot exceed %d (received %d)", MaxMaxCapacity, input.MaxCapacity)
	}
	cfg.MaxCapacity = input.MaxCapacity

	// --- 3. Workers ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 4. Output ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	return nil
}

// validateBackendConfig validates the store backend and its lock-wait timeout.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseDatabaseBackend(input.StoreBackend)
	if err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	cfg.LockTimeout = DefaultLockTimeout
	if s := strings.TrimSpace(input.LockTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid lock-timeout '%s': %w", s, err)
		}
		if d < 0 {
			return fmt.Errorf("lock-timeout cannot be negative (received %s)", s)
		}
		cfg.LockTimeout = d
	}
	return nil
}

// processRecords parses the comma-separated recorder list. An empty list enables every recorder.
func processRecords(cfg *Config, input *ConfigRawInput) error {
	records, err := ParseRecordKinds(input.Record)
	if err != nil {
		return err
	}
	cfg.Records = records
	return nil
}

// ParseRecordKinds parses a list like "calls,prebranch" into a set of recorders.
func ParseRecordKinds(s string) (map[schema.RecordKind]bool, error) {
	records := make(map[schema.RecordKind]bool)
	if strings.TrimSpace(s) == "" || strings.TrimSpace(s) == "all" {
		for _, kind := range schema.AllRecordKinds {
			records[kind] = true
		}
		return records, nil
	}
	for part := range strings.SplitSeq(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		kind := schema.RecordKind(part)
		if _, ok := schema.ValidRecordKinds[kind]; !ok {
			return nil, fmt.Errorf("invalid recorder '%s'. must be one of calls, function-calls, branch-calls, prebranch, postbranch, call-graph", part)
		}
		records[kind] = true
	}
	return records, nil
}

// processLogging resolves the diagnostic stream level and format.
func processLogging(cfg *Config, input *ConfigRawInput) error {
	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(input.LogFormat))
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s'. must be text or json", input.LogFormat)
	}
	return nil
}

// processCatalog validates the inline catalog. Entries loaded from catalog-file are
// validated by the catalog package when the file is read.
func processCatalog(cfg *Config, input *ConfigRawInput) error {
	seen := make(map[string]struct{})
	cfg.Catalog = nil
	for _, entry := range input.Catalog {
		domain := strings.TrimSpace(entry.Domain)
		if domain == "" {
			return fmt.Errorf("catalog entry with empty domain name")
		}
		if _, dup := seen[domain]; dup {
			return fmt.Errorf("domain '%s' is declared more than once in the catalog", domain)
		}
		seen[domain] = struct{}{}
		projects := make([]string, 0, len(entry.Projects))
		for _, p := range entry.Projects {
			if p = strings.TrimSpace(p); p != "" {
				projects = append(projects, p)
			}
		}
		cfg.Catalog = append(cfg.Catalog, schema.CatalogEntry{Domain: domain, Projects: projects})
	}
	return nil
}

// RequireCatalog fails when neither an inline catalog nor a catalog file is configured.
func (c *Config) RequireCatalog() error {
	if len(c.Catalog) == 0 && c.CatalogFile == "" {
		return fmt.Errorf("no catalog configured: set 'catalog' in the config file or pass --catalog-file")
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
