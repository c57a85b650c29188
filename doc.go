// Package SQLitePlus provides a convenience layer over SQLite with
// Git-backed snapshots of committed database files.
//
// A session keeps an implicit transaction open on its database file,
// substitutes query templates and buffers result rows as text. When the
// instance has an archive, every commit is also recorded there as a Git
// commit, so any committed state can be restored later.
//
// # Quick Start
//
//	archive, _ := ps.NewMemoryArchive()
//	instance := SQLitePlus.Open(archive)
//	session, _ := instance.Session("app.db", core.Identity{Name: "App", Email: "app@example.com"})
//	defer session.Close()
//
//	session.ExecuteString("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")
//
//	insert := sql.NewTemplate("INSERT INTO users VALUES (?, ?)", "1", "Alice")
//	session.Execute(insert)
//	session.Commit() // also snapshots app.db into the archive
//
//	session.ExecuteString("SELECT * FROM users")
//	session.Display(os.Stdout)
//
// # Query Templates
//
// Every ? in a template is replaced by the next binding wrapped in single
// quotes. By default quotes inside bindings are not escaped; set Quoting to
// sql.QuoteEscaped for untrusted input.
package SQLitePlus
