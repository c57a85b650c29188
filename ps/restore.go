package ps

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// Tag names a snapshot. With a nil asof the latest snapshot is tagged.
func (a *Archive) Tag(name string, asof *Transaction) error {
	if err := a.ensureInitialized(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	var hash plumbing.Hash
	if asof != nil {
		hash = plumbing.NewHash(asof.Id)
	} else {
		headRef, err := a.repo.Head()
		if err != nil {
			return ErrNoSnapshots
		}
		hash = headRef.Hash()
	}

	if _, err := a.repo.CreateTag(name, hash, nil); err != nil {
		return fmt.Errorf("failed to create tag '%s': %w", name, err)
	}
	return nil
}

// ResolveTag returns the snapshot a tag points at.
func (a *Archive) ResolveTag(name string) (Transaction, error) {
	if err := a.ensureInitialized(); err != nil {
		return Transaction{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	ref, err := a.repo.Tag(name)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to find tag '%s': %w", name, err)
	}
	commit, err := a.repo.CommitObject(ref.Hash())
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to read tag '%s': %w", name, err)
	}
	return transactionOf(commit), nil
}

// Tags lists tag names.
func (a *Archive) Tags() ([]string, error) {
	if err := a.ensureInitialized(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	iter, err := a.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	return names, err
}

// Restore writes the file name as archived in the asof snapshot to w.
func (a *Archive) Restore(asof Transaction, name string, w io.Writer) error {
	if err := a.ensureInitialized(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	commit, err := a.repo.CommitObject(plumbing.NewHash(asof.Id))
	if err != nil {
		return fmt.Errorf("failed to find transaction %s: %w", asof.ShortId(), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("failed to get tree: %w", err)
	}
	file, err := tree.File(filepath.Base(name))
	if errors.Is(err, object.ErrFileNotFound) {
		return ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", name, err)
	}

	r, err := file.Reader()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer r.Close()

	_, err = io.Copy(w, r)
	return err
}

// RestoreFile writes the file name as archived in the asof snapshot to
// dest, replacing it.
func (a *Archive) RestoreFile(asof Transaction, name, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".restore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := a.Restore(asof, name, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
