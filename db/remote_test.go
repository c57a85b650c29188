package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nickyhof/SQLitePlus/core"
	"github.com/nickyhof/SQLitePlus/sec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectScheme(t *testing.T) {
	tests := []struct {
		url  string
		want urlScheme
	}{
		{"s3://bucket/key.db", schemeS3},
		{"S3://bucket/key.db", schemeS3},
		{"https://example.com/x.db", schemeHTTPS},
		{"http://example.com/x.db", schemeHTTP},
		{"file:///tmp/x.db", schemeFile},
		{"/tmp/x.db", schemeLocal},
		{"backup.db", schemeLocal},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, detectScheme(tt.url))
		})
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://backups/nightly/app.db")
	require.NoError(t, err)
	assert.Equal(t, "backups", bucket)
	assert.Equal(t, "nightly/app.db", key)

	for _, bad := range []string{"s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := parseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

func TestBackupRestoreLocal(t *testing.T) {
	s, _ := setupTestSession(t)
	createUsers(t, s)
	require.NoError(t, s.Commit())
	require.NoError(t, s.ExecuteString("INSERT INTO users VALUES (3, 'Pending')"))

	dir := t.TempDir()
	backup := filepath.Join(dir, "backup.db")
	require.NoError(t, s.Backup(context.Background(), backup, nil))

	restored := filepath.Join(dir, "restored.db")
	require.NoError(t, Restore(context.Background(), "file://"+backup, restored, nil))

	r, err := Open(restored)
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.ExecuteString("SELECT name FROM users ORDER BY id"))
	assert.Equal(t, []core.Row{{"Alice"}, {"Bob"}}, r.Results())
}

func TestBackupSealed(t *testing.T) {
	s, _ := setupTestSession(t)
	createUsers(t, s)
	require.NoError(t, s.Commit())

	dir := t.TempDir()
	backup := filepath.Join(dir, "backup.sealed")
	cfg := &RemoteConfig{Passphrase: "correct horse"}
	require.NoError(t, s.Backup(context.Background(), backup, cfg))

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.True(t, sec.IsSealed(data))

	restored := filepath.Join(dir, "restored.db")
	err = Restore(context.Background(), backup, restored, nil)
	assert.ErrorIs(t, err, ErrBackup)
	assert.ErrorIs(t, err, sec.ErrNoPassphrase)

	err = Restore(context.Background(), backup, restored, &RemoteConfig{Passphrase: "wrong"})
	assert.ErrorIs(t, err, ErrBackup)

	require.NoError(t, Restore(context.Background(), backup, restored, cfg))
	r, err := Open(restored)
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.ExecuteString("SELECT count(*) FROM users"))
	assert.Equal(t, []core.Row{{"2"}}, r.Results())
}

func TestBackupRejectsHTTP(t *testing.T) {
	s, _ := setupTestSession(t)

	err := s.Backup(context.Background(), "https://example.com/backup.db", nil)
	assert.ErrorIs(t, err, ErrBackup)
	assert.Same(t, err, error(s.LastError()))
}

func TestRestoreMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Restore(context.Background(), filepath.Join(dir, "nope.db"), filepath.Join(dir, "out.db"), nil)
	assert.ErrorIs(t, err, ErrBackup)
}
