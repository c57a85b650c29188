package op

import (
	"path/filepath"
	"testing"

	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestSession(t *testing.T) *db.Session {
	t.Helper()
	s, err := db.Open(filepath.Join(t.TempDir(), "op.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.ExecuteString(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, city TEXT DEFAULT 'Oslo');
		CREATE TABLE archive (id INTEGER PRIMARY KEY, name TEXT NOT NULL, city TEXT);
		CREATE VIEW oslo AS SELECT name FROM users WHERE city = 'Oslo';
		INSERT INTO users (id, name) VALUES (1, 'Alice'), (2, 'Bob');
		INSERT INTO users VALUES (3, 'Carol', 'Bergen');
	`))
	return s
}

func TestTableNames(t *testing.T) {
	s := setupTestSession(t)

	names, err := Tables(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "users"}, names)
}

func TestViewsAndSchema(t *testing.T) {
	s := setupTestSession(t)
	dbOp := GetDatabase(s)

	views, err := dbOp.Views()
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "oslo", views[0].Name)
	assert.Contains(t, views[0].Query, "CREATE VIEW oslo")

	schema, err := dbOp.Schema()
	require.NoError(t, err)
	require.Len(t, schema, 3)
	assert.Contains(t, schema[0], "CREATE TABLE archive")
	assert.Contains(t, schema[1], "CREATE TABLE users")
	assert.Contains(t, schema[2], "CREATE VIEW oslo")
}

func TestDescribe(t *testing.T) {
	s := setupTestSession(t)

	table, err := Describe(s, "users")
	require.NoError(t, err)
	assert.Equal(t, core.Table{
		Name: "users",
		Columns: []core.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "name", Type: "TEXT", NotNull: true},
			{Name: "city", Type: "TEXT", Default: "'Oslo'"},
		},
	}, table)

	_, err = Describe(s, "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = Describe(s, "it's")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestTableOp(t *testing.T) {
	s := setupTestSession(t)

	users, err := GetTable("users", s)
	require.NoError(t, err)

	pk, err := users.PrimaryKey()
	require.NoError(t, err)
	assert.Equal(t, "id", *pk)
	assert.Equal(t, []string{"id", "name", "city"}, users.ColumnNames())

	count, err := users.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	rows, err := users.ScanWithFilter(func(row core.Row) bool { return row[2] == "Oslo" })
	require.NoError(t, err)
	var names []string
	for row := range rows {
		names = append(names, row[1])
	}
	assert.Equal(t, []string{"Alice", "Bob"}, names)
}

func TestCopyFrom(t *testing.T) {
	s := setupTestSession(t)
	dbOp := GetDatabase(s)

	users, err := dbOp.GetTable("users")
	require.NoError(t, err)
	archive, err := dbOp.GetTable("archive")
	require.NoError(t, err)

	require.NoError(t, archive.CopyFrom(users))
	count, err := archive.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNoPrimaryKey(t *testing.T) {
	s := setupTestSession(t)
	require.NoError(t, s.ExecuteString("CREATE TABLE log (line TEXT)"))

	log, err := GetTable("log", s)
	require.NoError(t, err)
	_, err = log.PrimaryKey()
	assert.ErrorIs(t, err, ErrNoPrimaryKey)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"users"`, QuoteIdent("users"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
}
