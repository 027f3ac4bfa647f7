package persist

import (
	"testing"

	"github.com/huangsam/ehminer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"call_info", false},
		{"_private", false},
		{"", true},
		{"1table", true},
		{"call_info; DROP TABLE x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`call_info`", quoteTableName("call_info", schema.MySQLBackend))
	assert.Equal(t, `"call_info"`, quoteTableName("call_info", schema.PostgreSQLBackend))
	assert.Equal(t, `"call_info"`, quoteTableName("call_info", schema.SQLiteBackend))
}

func TestRebind(t *testing.T) {
	q := "SELECT ID FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, q, rebind(q, schema.SQLiteBackend))
	assert.Equal(t, q, rebind(q, schema.MySQLBackend))
	assert.Equal(t, "SELECT ID FROM t WHERE a = $1 AND b = $2", rebind(q, schema.PostgreSQLBackend))
}

func TestForUpdate(t *testing.T) {
	assert.Equal(t, "", forUpdate(schema.SQLiteBackend))
	assert.Equal(t, " FOR UPDATE", forUpdate(schema.MySQLBackend))
	assert.Equal(t, " FOR UPDATE", forUpdate(schema.PostgreSQLBackend))
}

func TestKeyLock(t *testing.T) {
	assert.Equal(t, "", keyLockQuery(schema.SQLiteBackend))
	assert.Equal(t, "", keyLockQuery(schema.MySQLBackend))
	assert.Equal(t, "SELECT pg_advisory_xact_lock($1)", keyLockQuery(schema.PostgreSQLBackend))

	id := keyLockID(callInfoTable, []any{"open"})
	assert.Equal(t, id, keyLockID(callInfoTable, []any{"open"}))
	assert.NotEqual(t, id, keyLockID(callInfoTable, []any{"close"}))
	assert.NotEqual(t, id, keyLockID(callStatisticTable, []any{"open"}))
	assert.NotEqual(t,
		keyLockID(prebranchTable, []any{"ab", "c"}),
		keyLockID(prebranchTable, []any{"a", "bc"}))
	assert.NotEqual(t,
		keyLockID(callInfoBucketTable, []any{"open", domainBucket, 1}),
		keyLockID(callInfoBucketTable, []any{"open", domainBucket, 2}))
}

func TestGetCreateTableQueries(t *testing.T) {
	def := tableDefs[prebranchTable]

	sqlite := getCreateTableQueries(def, schema.SQLiteBackend)
	require.Len(t, sqlite, 2)
	assert.Contains(t, sqlite[0], "ID INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, sqlite[0], "NumLogTime INTEGER")
	assert.Equal(t, `CREATE INDEX IF NOT EXISTS call2_index ON "prebranch_call" (CallName, CallDefLoc)`, sqlite[1])

	pg := getCreateTableQueries(def, schema.PostgreSQLBackend)
	require.Len(t, pg, 2)
	assert.Contains(t, pg[0], "ID BIGSERIAL PRIMARY KEY")
	assert.Contains(t, pg[0], "NumLogTime BIGINT")

	my := getCreateTableQueries(def, schema.MySQLBackend)
	require.Len(t, my, 1)
	assert.Contains(t, my[0], "ID BIGINT AUTO_INCREMENT PRIMARY KEY")
	assert.Contains(t, my[0], "INDEX call2_index (CallName(191), CallDefLoc(191))")

	bucket := getCreateTableQueries(tableDefs[callInfoBucketTable], schema.MySQLBackend)
	assert.Contains(t, bucket[0], "INDEX bucket_index (CallName(191), BucketKind(191))")
}

func TestInsertQuery(t *testing.T) {
	def := tableDefs[callStatisticTable]
	assert.Equal(t,
		`INSERT INTO "call_statistic" (CallName, CallDefLoc, DomainName, ProjectName, CallNumber) VALUES (?, ?, ?, ?, ?)`,
		def.insertQuery(schema.SQLiteBackend))
	assert.Equal(t,
		`INSERT INTO "call_statistic" (CallName, CallDefLoc, DomainName, ProjectName, CallNumber) VALUES ($1, $2, $3, $4, $5)`,
		def.insertQuery(schema.PostgreSQLBackend))
}

func TestTableDefsCoverAllTables(t *testing.T) {
	require.Len(t, tableDefs, len(allTables))
	for _, table := range allTables {
		def, ok := tableDefs[table]
		require.True(t, ok, table)
		assert.Equal(t, table, def.name)
		assert.NoError(t, validateTableName(def.name))
	}
}
