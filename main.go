package SQLitePlus

import (
	"fmt"

	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/db"
	"github.com/nickyhof/SQLitePlus/ps"
)

// Version is reported by the CLI and the server.
const Version = "0.3.0"

// Instance opens sessions that share one optional snapshot archive.
type Instance struct {
	Archive *ps.Archive
}

// Open creates an instance. A nil archive disables snapshots.
func Open(archive *ps.Archive) *Instance {
	return &Instance{
		Archive: archive,
	}
}

// Session opens the database file at path for identity. When the instance
// has an archive, every commit on the session is snapshotted into it.
func (instance *Instance) Session(path string, identity core.Identity, opts ...db.Option) (*db.Session, error) {
	if instance.Archive != nil {
		opts = append(opts, db.WithCommitHook(instance.SnapshotHook(identity)))
	}
	return db.Open(path, opts...)
}

// SnapshotHook returns a commit hook recording the committed file in the
// archive as identity.
func (instance *Instance) SnapshotHook(identity core.Identity) db.CommitHook {
	return func(path string) error {
		if _, err := instance.Archive.Snapshot(path, identity, ""); err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", path, err)
		}
		return nil
	}
}
