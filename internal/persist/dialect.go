package persist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/huangsam/ehminer/schema"
	"github.com/zeebo/xxh3"
)

// Table names. The column names inside them are shared with data written by earlier tools.
const (
	functionCallTable   = "function_call"
	callStatisticTable  = "call_statistic"
	callInfoTable       = "call_info"
	callInfoBucketTable = "call_info_bucket"
	callGraphTable      = "call_graph"
	branchCallTable     = "branch_call"
	prebranchTable      = "prebranch_call"
	postbranchTable     = "postbranch_call"
)

// Bucket kinds stored in call_info_bucket.
const (
	domainBucket  = "domain"
	projectBucket = "project"
)

type columnKind int

const (
	textColumn columnKind = iota
	intColumn
)

type column struct {
	name string
	kind columnKind
}

// tableDef describes one table and its lookup index.
type tableDef struct {
	name      string
	columns   []column
	indexName string
	indexCols []string
}

func text(name string) column { return column{name: name, kind: textColumn} }
func integer(name string) column { return column{name: name, kind: intColumn} }

var tableDefs = map[string]tableDef{
	functionCallTable: {
		name: functionCallTable,
		columns: []column{
			text("CallName"), text("CallDefLoc"), text("DomainName"), text("ProjectName"),
			text("CallID"), text("CallStr"),
		},
		indexName: "call4_index",
		indexCols: []string{"CallName", "CallDefLoc"},
	},
	callStatisticTable: {
		name: callStatisticTable,
		columns: []column{
			text("CallName"), text("CallDefLoc"), text("DomainName"), text("ProjectName"),
			integer("CallNumber"),
		},
		indexName: "call3_index",
		indexCols: []string{"CallName", "CallDefLoc"},
	},
	callInfoTable: {
		name: callInfoTable,
		columns: []column{
			text("CallName"), text("DefLoc"), integer("HasOutDef"), integer("IsMulDef"),
			integer("NumDomain"), integer("NumProject"), integer("NumCallTotal"),
		},
		indexName: "info_index",
		indexCols: []string{"CallName"},
	},
	callInfoBucketTable: {
		name: callInfoBucketTable,
		columns: []column{
			text("CallName"), text("BucketKind"), integer("BucketID"), integer("Count"),
		},
		indexName: "bucket_index",
		indexCols: []string{"CallName", "BucketKind"},
	},
	callGraphTable: {
		name: callGraphTable,
		columns: []column{
			text("FuncName"), text("FuncDefLoc"), integer("FuncSize"), text("DomainName"),
			text("ProjectName"), text("CallName"), text("CallDefLoc"),
		},
		indexName: "func_index",
		indexCols: []string{"FuncName", "FuncDefLoc"},
	},
	branchCallTable: {
		name: branchCallTable,
		columns: []column{
			text("DomainName"), text("ProjectName"), text("CallName"), text("CallDefLoc"),
			text("CallID"), text("CallStr"), text("CallReturn"), text("CallArgVec"),
			integer("CallArgNum"), text("ExprNodeVec"), integer("ExprNodeNum"), text("ExprStrVec"),
			text("PathNumberVec"), text("CaseLabelVec"), integer("BranchLevel"), text("LogName"),
			text("LogDefLoc"), text("LogID"), text("LogStr"), text("LogArgVec"),
			integer("LogArgNum"), text("LogRetType"), text("LogArgTypeVec"), integer("LogArgTypeNum"),
		},
		indexName: "call1_index",
		indexCols: []string{"CallName", "CallDefLoc"},
	},
	prebranchTable: {
		name: prebranchTable,
		columns: []column{
			text("CallName"), text("CallDefLoc"), text("DomainName"), text("ProjectName"),
			text("LogName"), text("LogDefLoc"), integer("NumLogTime"),
		},
		indexName: "call2_index",
		indexCols: []string{"CallName", "CallDefLoc"},
	},
	postbranchTable: {
		name: postbranchTable,
		columns: []column{
			text("LogName"), text("LogDefLoc"), text("DomainName"), text("ProjectName"),
			text("PrebranchCall"), integer("NumPrebranchCall"), integer("NumPostbranchCall"),
		},
		indexName: "log_index",
		indexCols: []string{"LogName", "LogDefLoc"},
	},
}

// allTables lists every table in a stable order for status, clear and export.
var allTables = []string{
	functionCallTable, callStatisticTable, callInfoTable, callInfoBucketTable,
	callGraphTable, branchCallTable, prebranchTable, postbranchTable,
}

// mysqlIndexPrefix bounds indexed TEXT columns on MySQL, which cannot index them whole.
const mysqlIndexPrefix = 191

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName ensures the table name is safe to interpolate into a query.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.PostgreSQLBackend:
		return fmt.Sprintf("\"%s\"", name)
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite
		return fmt.Sprintf("\"%s\"", name)
	}
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL. Queries built here never
// carry a literal "?" outside of placeholders.
func rebind(query string, backend schema.DatabaseBackend) string {
	if backend != schema.PostgreSQLBackend {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// forUpdate returns the row-locking suffix of a natural-key select. SQLite already holds
// the write lock for the whole immediate transaction.
func forUpdate(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return " FOR UPDATE"
	default:
		return ""
	}
}

// keyLockQuery returns the statement that serializes upserts of one natural key across
// processes, or "" when the row lock is enough. A PostgreSQL FOR UPDATE locks no row when
// the key is absent, so two transactions could both insert it.
func keyLockQuery(backend schema.DatabaseBackend) string {
	if backend == schema.PostgreSQLBackend {
		return "SELECT pg_advisory_xact_lock($1)"
	}
	return ""
}

// keyLockID hashes a table and its natural key into an advisory lock ID.
func keyLockID(table string, keyVals []any) int64 {
	h := xxh3.New()
	_, _ = h.WriteString(table)
	for _, v := range keyVals {
		_, _ = h.WriteString("\x00")
		_, _ = fmt.Fprint(h, v)
	}
	return int64(h.Sum64())
}

func columnType(kind columnKind, backend schema.DatabaseBackend) string {
	switch {
	case kind == intColumn && backend == schema.SQLiteBackend:
		return "INTEGER"
	case kind == intColumn:
		return "BIGINT"
	default:
		return "TEXT"
	}
}

// getCreateTableQueries returns the CREATE TABLE and CREATE INDEX statements for def.
// MySQL has no CREATE INDEX IF NOT EXISTS, so its index is declared inline.
func getCreateTableQueries(def tableDef, backend schema.DatabaseBackend) []string {
	quotedTableName := quoteTableName(def.name, backend)

	var idColumn string
	switch backend {
	case schema.MySQLBackend:
		idColumn = "ID BIGINT AUTO_INCREMENT PRIMARY KEY"
	case schema.PostgreSQLBackend:
		idColumn = "ID BIGSERIAL PRIMARY KEY"
	default: // SQLite
		idColumn = "ID INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	parts := []string{idColumn}
	for _, col := range def.columns {
		parts = append(parts, col.name+" "+columnType(col.kind, backend))
	}

	if backend == schema.MySQLBackend {
		keyParts := make([]string, len(def.indexCols))
		for i, c := range def.indexCols {
			keyParts[i] = fmt.Sprintf("%s(%d)", c, mysqlIndexPrefix)
			if def.columnKind(c) == intColumn {
				keyParts[i] = c
			}
		}
		parts = append(parts, fmt.Sprintf("INDEX %s (%s)", def.indexName, strings.Join(keyParts, ", ")))
		return []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quotedTableName, strings.Join(parts, ", "))}
	}

	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quotedTableName, strings.Join(parts, ", ")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", def.indexName, quotedTableName, strings.Join(def.indexCols, ", ")),
	}
}

func (def tableDef) columnKind(name string) columnKind {
	for _, c := range def.columns {
		if c.name == name {
			return c.kind
		}
	}
	return textColumn
}

// columnNames returns the non-ID column names joined for a select or insert list.
func (def tableDef) columnNames() string {
	names := make([]string, len(def.columns))
	for i, c := range def.columns {
		names[i] = c.name
	}
	return strings.Join(names, ", ")
}

// insertQuery returns an INSERT of every non-ID column with "?" placeholders.
func (def tableDef) insertQuery(backend schema.DatabaseBackend) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(def.columns)), ", ")
	return rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTableName(def.name, backend), def.columnNames(), placeholders), backend)
}
