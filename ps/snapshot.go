package ps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nickyhof/SQLitePlus/core"
)

// Snapshot stores the database file at dbPath in a new commit authored by
// identity. The file is archived under its base name, so snapshots of the
// same file form one history. The caller must ensure the file is not being
// written while it is read.
func (a *Archive) Snapshot(dbPath string, identity core.Identity, message string) (Transaction, error) {
	if err := a.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to read %s: %w", dbPath, err)
	}
	if message == "" {
		message = "Snapshot " + filepath.Base(dbPath)
	}

	unlock, err := a.acquire()
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to lock archive: %w", err)
	}
	defer unlock()

	blobHash, err := a.createBlob(data)
	if err != nil {
		return Transaction{}, err
	}
	head, err := a.headCommit()
	if err != nil {
		return Transaction{}, err
	}
	treeHash, err := a.putTreeFile(head, filepath.Base(dbPath), blobHash)
	if err != nil {
		return Transaction{}, err
	}
	return a.createCommitDirect(head, treeHash, identity, message)
}
