package migrations

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := fs.Glob(PostgresFS, "postgres/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres/001_tokens.sql", "postgres/002_interactions.sql"}, pg)

	ch, err := fs.Glob(ClickhouseFS, "clickhouse/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"clickhouse/001_market_snapshots.sql"}, ch)
}

func TestLoadScripts(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/002_b.sql":    {Data: []byte("CREATE TABLE b (x int);\n")},
		"pg/001_a.sql":    {Data: []byte("CREATE TABLE a (x int);")},
		"pg/003_c.sql":    {Data: []byte("  \n")},
		"pg/README.md":    {Data: []byte("not sql")},
		"other/001_z.sql": {Data: []byte("CREATE TABLE z (x int);")},
	}

	scripts, err := loadScripts(fsys, "pg")
	require.NoError(t, err)

	require.Len(t, scripts, 2)
	assert.Equal(t, "001_a.sql", scripts[0].name)
	assert.Equal(t, "CREATE TABLE a (x int);", scripts[0].body)
	assert.Equal(t, "002_b.sql", scripts[1].name)
	assert.Equal(t, "CREATE TABLE b (x int);", scripts[1].body)
}

func TestLoadScripts_Embedded(t *testing.T) {
	pg, err := loadScripts(PostgresFS, "postgres")
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Contains(t, pg[0].body, "CREATE TABLE IF NOT EXISTS tokens")
	assert.Contains(t, pg[1].body, "CREATE TABLE IF NOT EXISTS interactions")
}

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (y String) ENGINE = Memory;
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y String) ENGINE = Memory", stmts[1])
}

func TestClickhouseMigrationsSplitCleanly(t *testing.T) {
	data, err := fs.ReadFile(ClickhouseFS, "clickhouse/001_market_snapshots.sql")
	require.NoError(t, err)

	require.NoError(t, validateNoSemicolonInStrings(string(data)))
	stmts := splitStatements(string(data))
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS market_snapshots")
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'it''s' ;"))
	assert.Error(t, validateNoSemicolonInStrings("SELECT 'a;b'"))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/croak")
	require.NoError(t, err)
	assert.Equal(t, "croak", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
