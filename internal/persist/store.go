// Package persist is the durable side of call aggregation: natural-key upserts and
// append-only recorders over SQLite, MySQL or PostgreSQL.
package persist

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // SQLite driver
)

// Store handles durable storage of observations using various database backends.
type Store struct {
	db          *sql.DB
	backend     schema.DatabaseBackend
	connStr     string
	lockTimeout time.Duration
	logger      *slog.Logger

	// mu serializes every read-then-write sequence issued by this process
	mu        sync.Mutex
	ensured   map[string]bool
	anomalies int
}

var (
	_ contract.ObservationStore = &Store{} // Compile-time check
	_ contract.ExportSource     = &Store{} // Compile-time check
)

// NewStore opens the store for backend. The lock timeout bounds how long a write waits
// for another process holding the same database. A nil logger discards diagnostics.
func NewStore(backend schema.DatabaseBackend, connStr string, lockTimeout time.Duration, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	if lockTimeout <= 0 {
		lockTimeout = contract.DefaultLockTimeout
	}

	db, err := openDB(backend, connStr, lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrStoreOpen, err)
	}

	store := &Store{
		db:          db,
		backend:     backend,
		connStr:     connStr,
		lockTimeout: lockTimeout,
		logger:      logger,
		ensured:     make(map[string]bool),
	}
	if db == nil {
		return store, nil
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is readable and its directory is writable."
		}
		return nil, fmt.Errorf("%w: failed to connect to %s database: %w. %s", contract.ErrStoreOpen, backend, err, connDetail)
	}
	return store, nil
}

// openDB opens a *sql.DB for backend with its lock-wait timeout applied. It returns a
// nil DB for the none backend.
func openDB(backend schema.DatabaseBackend, connStr string, lockTimeout time.Duration) (*sql.DB, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		db, err := sql.Open("sqlite", sqliteDSN(dbPath, lockTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
		return db, nil

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		cfg, err := mysql.ParseDSN(connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse MySQL connection string: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params["innodb_lock_wait_timeout"] = strconv.Itoa(lockSeconds(lockTimeout))
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w", err)
		}
		return sql.OpenDB(connector), nil

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=mysecretpassword dbname=postgres
		cfg, err := pgx.ParseConfig(connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PostgreSQL connection string: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}
		cfg.RuntimeParams["lock_timeout"] = strconv.FormatInt(lockTimeout.Milliseconds(), 10)
		return stdlib.OpenDB(*cfg), nil

	case schema.NoneBackend:
		// No-op store for disabled persistence
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}
}

// sqliteDSN adds the busy timeout and immediate transactions to a SQLite path.
func sqliteDSN(path string, lockTimeout time.Duration) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)&_txlock=immediate", path, sep, lockTimeout.Milliseconds())
}

// lockSeconds rounds a timeout up to whole seconds, the unit MySQL accepts.
func lockSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}

// Backend returns the backend this store writes to.
func (s *Store) Backend() schema.DatabaseBackend { return s.backend }

// Anomalies returns how many natural-key lookups matched more than one row.
func (s *Store) Anomalies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anomalies
}

// Close closes the underlying DB connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ensureTable creates table and its index once per Store. Callers hold s.mu.
func (s *Store) ensureTable(table string) error {
	if s.ensured[table] {
		return nil
	}
	def, ok := tableDefs[table]
	if !ok {
		return fmt.Errorf("unknown table %s", table)
	}
	if err := validateTableName(def.name); err != nil {
		return err
	}
	for _, query := range getCreateTableQueries(def, s.backend) {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	s.ensured[table] = true
	return nil
}

// ensureAllTables creates every table. Callers hold s.mu.
func (s *Store) ensureAllTables() error {
	for _, table := range allTables {
		if err := s.ensureTable(table); err != nil {
			return err
		}
	}
	return nil
}

// write runs fn in one transaction after making sure tables exist. Any failure, lock
// timeouts included, is returned wrapped in ErrPersistence and never retried.
func (s *Store) write(op string, tables []string, fn func(tx *sql.Tx) error) error {
	if s.backend == schema.NoneBackend || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range tables {
		if err := s.ensureTable(table); err != nil {
			return fmt.Errorf("%w: %s: %w", contract.ErrPersistence, op, err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %s: begin: %w", contract.ErrPersistence, op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %s: %w", contract.ErrPersistence, op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %s: commit: %w", contract.ErrPersistence, op, err)
	}
	return nil
}

// lookup locks the natural key where the backend needs it, selects the matching rows of
// table oldest first, and scans the
// first one into dest (ID first, then cols). Extra matches are reported as an integrity
// anomaly and ignored. It reports whether any row matched.
func (s *Store) lookup(tx *sql.Tx, table, cols string, keyCols []string, keyVals []any, dest ...any) (bool, error) {
	if q := keyLockQuery(s.backend); q != "" {
		if _, err := tx.Exec(q, keyLockID(table, keyVals)); err != nil {
			return false, fmt.Errorf("lock key in %s: %w", table, err)
		}
	}
	where := make([]string, len(keyCols))
	for i, col := range keyCols {
		where[i] = col + " = ?"
	}
	query := rebind(fmt.Sprintf("SELECT ID, %s FROM %s WHERE %s ORDER BY ID%s",
		cols, quoteTableName(table, s.backend), strings.Join(where, " AND "), forUpdate(s.backend)), s.backend)

	rows, err := tx.Query(query, keyVals...)
	if err != nil {
		return false, fmt.Errorf("select from %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	matched := 0
	for rows.Next() {
		matched++
		if matched > 1 {
			continue
		}
		if err := rows.Scan(dest...); err != nil {
			return false, fmt.Errorf("scan %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate %s: %w", table, err)
	}
	if matched > 1 {
		s.anomalies++
		attrs := []any{"table", table, "rows", matched, "error", contract.ErrIntegrityAnomaly}
		for i, col := range keyCols {
			attrs = append(attrs, col, keyVals[i])
		}
		s.logger.Warn("store.integrity", attrs...)
	}
	return matched > 0, nil
}

// insert appends one row of values in column order.
func (s *Store) insert(tx *sql.Tx, table string, values ...any) error {
	def := tableDefs[table]
	if len(values) != len(def.columns) {
		return fmt.Errorf("insert into %s: %d values for %d columns", table, len(values), len(def.columns))
	}
	if _, err := tx.Exec(def.insertQuery(s.backend), values...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// updateByID sets the given columns on one row.
func (s *Store) updateByID(tx *sql.Tx, table string, id int64, cols []string, values ...any) error {
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}
	query := rebind(fmt.Sprintf("UPDATE %s SET %s WHERE ID = ?",
		quoteTableName(table, s.backend), strings.Join(sets, ", ")), s.backend)
	if _, err := tx.Exec(query, append(values, id)...); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
