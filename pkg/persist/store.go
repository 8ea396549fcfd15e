package persist

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"regexp"
	"time"
)

// ErrNotFound is returned by Store.Load when no snapshot exists.
var ErrNotFound = stderrors.New("persist: snapshot not found")

// ErrInvalidName is returned for names that cannot be used as keys.
var ErrInvalidName = stderrors.New("persist: invalid snapshot name")

// Snapshot is one saved value of a named shared state.
type Snapshot struct {
	// ID identifies this particular save.
	ID string `json:"id"`

	// Name is the state name and the storage key.
	Name string `json:"name"`

	// Version is the state's version when the value was captured.
	Version uint64 `json:"version"`

	// SavedAt is when the snapshot was taken, in UTC.
	SavedAt time.Time `json:"saved_at"`

	// Data is the JSON encoded value.
	Data json.RawMessage `json:"data"`
}

// Store persists snapshots by name. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save stores snap, replacing any snapshot with the same name.
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the snapshot stored under name, or ErrNotFound.
	Load(ctx context.Context, name string) (Snapshot, error)

	// Delete removes the snapshot stored under name. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored snapshots, sorted.
	List(ctx context.Context) ([]string, error)
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidName reports whether name can be used as a snapshot key.
func ValidName(name string) bool {
	return len(name) <= 200 && namePattern.MatchString(name)
}
