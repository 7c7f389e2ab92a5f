// Package session persists per-thread conversation state snapshots.
package session

import (
	"errors"
	"memochat/app/config"

	"github.com/samber/do"
)

var (
	// ErrNotFound indicates the thread has no stored state.
	ErrNotFound = errors.New("session not found")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("session store closed")
)

// Store keeps serialized state snapshots keyed by thread ID.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the snapshot for a thread, ErrNotFound if absent.
	Get(threadID string) ([]byte, error)

	// Put stores a snapshot, overwriting any previous one.
	Put(threadID string, snapshot []byte) error

	// Delete removes a thread. Removing an absent thread is not an error.
	Delete(threadID string) error

	// Threads lists all thread IDs with stored state.
	Threads() ([]string, error)

	// Close releases resources. Further calls return ErrClosed.
	Close() error
}

// NewStore picks the backend from config.
func NewStore(di *do.Injector) (Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	if cfg.Store.Backend == "file" {
		return NewFileStore(cfg.Store.Path)
	}

	return NewMemoryStore(), nil
}
