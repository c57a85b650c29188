package SQLitePlus

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/db"
	"github.com/nickyhof/SQLitePlus/op"
	"github.com/nickyhof/SQLitePlus/ps"
	"github.com/nickyhof/SQLitePlus/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identity = core.Identity{Name: "test", Email: "test@test.com"}

// runWithBothArchives runs testFunc against a memory and a file archive.
func runWithBothArchives(t *testing.T, testFunc func(t *testing.T, instance *Instance)) {
	t.Run("Memory", func(t *testing.T) {
		archive, err := ps.NewMemoryArchive()
		require.NoError(t, err)
		testFunc(t, Open(archive))
	})

	t.Run("File", func(t *testing.T) {
		archive, err := ps.NewFileArchive(filepath.Join(t.TempDir(), "history"), nil)
		require.NoError(t, err)
		testFunc(t, Open(archive))
	})
}

func TestIntegrationWorkflow(t *testing.T) {
	runWithBothArchives(t, func(t *testing.T, instance *Instance) {
		path := filepath.Join(t.TempDir(), "company.db")
		session, err := instance.Session(path, identity)
		require.NoError(t, err)
		defer session.Close()

		require.NoError(t, session.ExecuteString(
			"CREATE TABLE employees (id INTEGER PRIMARY KEY, name TEXT, dept TEXT)"))

		insert := sql.NewTemplate("INSERT INTO employees VALUES (?, ?, ?)")
		for _, employee := range [][]string{{"1", "Alice", "eng"}, {"2", "Bob", "ops"}} {
			insert.ResetBindings()
			insert.AddBinding(employee...)
			require.NoError(t, session.Execute(insert))
		}
		require.NoError(t, session.Commit())

		first := instance.Archive.LatestTransaction()
		require.NotEmpty(t, first.Id)
		assert.Equal(t, identity.String(), first.Author)

		require.NoError(t, session.ExecuteString("DELETE FROM employees WHERE id = 2"))
		require.NoError(t, session.Commit())
		second := instance.Archive.LatestTransaction()
		assert.NotEqual(t, first.Id, second.Id)

		// restore the first snapshot next to the live file and read it back
		restored := filepath.Join(t.TempDir(), "restored.db")
		require.NoError(t, instance.Archive.RestoreFile(first, "company.db", restored))

		old, err := db.Open(restored, db.WithReadOnly())
		require.NoError(t, err)
		defer old.Close()
		require.NoError(t, old.ExecuteString("SELECT name FROM employees ORDER BY id"))
		assert.Equal(t, []core.Row{{"Alice"}, {"Bob"}}, old.Results())

		require.NoError(t, session.ExecuteString("SELECT name FROM employees ORDER BY id"))
		assert.Equal(t, []core.Row{{"Alice"}}, session.Results())
	})
}

func TestIntegrationUncommittedNotArchived(t *testing.T) {
	archive, err := ps.NewMemoryArchive()
	require.NoError(t, err)
	instance := Open(archive)

	path := filepath.Join(t.TempDir(), "pending.db")
	session, err := instance.Session(path, identity)
	require.NoError(t, err)
	require.NoError(t, session.ExecuteString("CREATE TABLE t (x)"))
	require.NoError(t, session.Close())

	assert.Equal(t, ps.Transaction{}, archive.LatestTransaction())
}

func TestIntegrationWithoutArchive(t *testing.T) {
	instance := Open(nil)
	session, err := instance.Session(filepath.Join(t.TempDir(), "plain.db"), identity)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.ExecuteString("CREATE TABLE t (x)"))
	require.NoError(t, session.Commit())
}

func TestIntegrationSchemaAndDisplay(t *testing.T) {
	instance := Open(nil)
	session, err := instance.Session(filepath.Join(t.TempDir(), "schema.db"), identity)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.ExecuteString(`
		CREATE TABLE items (id INTEGER PRIMARY KEY, label TEXT);
		INSERT INTO items VALUES (1, 'one'), (2, NULL);
	`))

	tables, err := op.Tables(session)
	require.NoError(t, err)
	assert.Equal(t, []string{"items"}, tables)

	require.NoError(t, session.ExecuteString("SELECT * FROM items ORDER BY id"))
	var buf bytes.Buffer
	session.Display(&buf)
	assert.Contains(t, buf.String(), "|  2 | NULL  |")
	assert.Contains(t, buf.String(), "2 rows")
}
