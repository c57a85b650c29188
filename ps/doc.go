// Package ps provides the snapshot archive for SQLitePlus.
//
// The archive is a Git repository, managed with go-git. Every snapshot
// stores a committed database file as a blob and records it in a new Git
// commit authored by the identity that committed the data, so the history
// of a database file is the history of the repository.
//
// # Memory Archive
//
// For testing or ephemeral use:
//
//	archive, err := ps.NewMemoryArchive()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # File Archive
//
// For persistent history, optionally cloned from a remote:
//
//	archive, err := ps.NewFileArchive("/path/to/history", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Snapshot writers on a file archive are serialized across processes with
// a lock file inside the repository directory.
//
// # Snapshots and Restore
//
//	txn, _ := archive.Snapshot("app.db", identity, "nightly")
//	archive.Tag("v1", &txn)
//	archive.RestoreFile(txn, "app.db", "/tmp/app-v1.db")
package ps
