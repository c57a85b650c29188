package ps

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fluxcd/pkg/lockedfile"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
)

var (
	ErrNotInitialized = errors.New("archive not initialized")
	ErrNoSnapshots    = errors.New("archive has no snapshots")
	ErrFileNotFound   = errors.New("file not found in snapshot")
)

const lockName = "sqliteplus.lock"

// Archive records snapshots of database files in a Git repository.
// It is safe for concurrent use.
type Archive struct {
	repo *git.Repository
	mu   sync.Mutex

	// lock serializes snapshot writers across processes; nil in memory mode.
	lock *lockedfile.Mutex
}

// IsInitialized reports whether the archive has a repository.
func (a *Archive) IsInitialized() bool {
	return a != nil && a.repo != nil
}

func (a *Archive) ensureInitialized() error {
	if !a.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

// NewMemoryArchive creates an archive held entirely in memory.
func NewMemoryArchive() (*Archive, error) {
	repo, err := git.Init(memory.NewStorage(), git.WithWorkTree(memfs.New()))
	if err != nil {
		return nil, err
	}
	return &Archive{repo: repo}, nil
}

// NewFileArchive opens the archive in baseDir, creating it when it does not
// exist. When gitUrl is set the archive is cloned from it instead.
func NewFileArchive(baseDir string, gitUrl *string) (*Archive, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	switch {
	case gitUrl != nil:
		repo, err = git.Clone(storer, wt, &git.CloneOptions{URL: *gitUrl})
	case !exists(fs.Root()):
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	default:
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, err
	}

	return &Archive{
		repo: repo,
		lock: lockedfile.MutexAt(filepath.Join(fs.Root(), lockName)),
	}, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// acquire takes the in-process and, for file archives, the cross-process
// writer lock.
func (a *Archive) acquire() (func(), error) {
	a.mu.Lock()
	if a.lock == nil {
		return a.mu.Unlock, nil
	}

	unlock, err := a.lock.Lock()
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	return func() {
		unlock()
		a.mu.Unlock()
	}, nil
}
