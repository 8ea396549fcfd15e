package persist

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vango-dev/sharedstate/internal/errors"
)

// DiskStore keeps one JSON file per snapshot in a directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a DiskStore, creating dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New(errors.CodeSnapshotSave).WithDetailf("cannot create %s", dir).Wrap(err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save implements Store. The file is written to a temporary name first
// and renamed into place.
func (s *DiskStore) Save(_ context.Context, snap Snapshot) error {
	if !ValidName(snap.Name) {
		return ErrInvalidName
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.New(errors.CodeSnapshotEncode).Wrap(err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+snap.Name+"-*.tmp")
	if err != nil {
		return errors.New(errors.CodeSnapshotSave).Wrap(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.New(errors.CodeSnapshotSave).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.New(errors.CodeSnapshotSave).Wrap(err)
	}
	if err := os.Rename(tmp.Name(), s.path(snap.Name)); err != nil {
		return errors.New(errors.CodeSnapshotSave).Wrap(err)
	}
	return nil
}

// Load implements Store.
func (s *DiskStore) Load(_ context.Context, name string) (Snapshot, error) {
	if !ValidName(name) {
		return Snapshot{}, ErrInvalidName
	}
	data, err := os.ReadFile(s.path(name))
	if stderrors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, errors.New(errors.CodeSnapshotLoad).Wrap(err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errors.New(errors.CodeSnapshotDecode).WithDetailf("corrupt file %s", s.path(name)).Wrap(err)
	}
	return snap, nil
}

// Delete implements Store.
func (s *DiskStore) Delete(_ context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	err := os.Remove(s.path(name))
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.New(errors.CodeSnapshotSave).Wrap(err)
	}
	return nil
}

// List implements Store.
func (s *DiskStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.New(errors.CodeSnapshotLoad).Wrap(err)
	}
	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() || !ValidName(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
