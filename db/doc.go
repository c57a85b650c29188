// Package db provides the database session for SQLitePlus.
//
// A Session owns one connection to a SQLite file and keeps an implicit
// transaction open on it: the transaction begins on Open and is re-begun
// after every Commit or Rollback. Statements run inside it, and rows they
// return are buffered as text until the next successful execution.
//
// # Session Usage
//
//	s, err := db.Open("app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	query := sql.NewTemplate("SELECT name FROM users WHERE id = ?", "42")
//	if err := s.Execute(query); err != nil {
//	    s.Perror(os.Stderr)
//	}
//	s.Display(os.Stdout)
//	s.Commit()
//
// # Errors
//
// Every failing operation returns an *Error carrying an ErrorKind, the
// engine's diagnostic text and result code where there is one. Compare
// kinds with errors.Is against the Err* values. The session also records
// the most recent failure for LastError and Perror.
//
// # Backups
//
// Backup copies the last committed state to a local path, a file:// URL or
// an s3:// URL, sealing it when a passphrase is configured. Restore reverses
// it and also reads http(s):// URLs.
package db
