// Package kv defines the engine capability interface shared by every
// storage backend and by the server.
package kv

import "errors"

// Errors that callers branch on. Everything else (I/O, serialization)
// is wrapped with context and only inspected as "failed".
var (
	// ErrKeyNotFound is returned by Remove when the key is absent.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnexpectedCommand means the index pointed at a log record that
	// did not decode as a set. This is an internal invariant violation,
	// never a user error.
	ErrUnexpectedCommand = errors.New("unexpected command in log")

	// ErrEngineMismatch means the data directory was created by a
	// different engine than the one requested.
	ErrEngineMismatch = errors.New("data directory belongs to a different engine")
)

// Engine is the interface for a key-value storage backend.
// Implementations of this interface can be swapped out, allowing for
// different storage backends (log-structured or bolt-backed).
// Implementations must be safe for concurrent use by multiple goroutines.
type Engine interface {
	// Get retrieves the value associated with the given key.
	// Returns the value and true if the key exists, or empty string and
	// false if not. The error is non-nil only on an internal failure.
	Get(key string) (string, bool, error)

	// Set stores a key-value pair, overwriting any previous value.
	Set(key, value string) error

	// Remove deletes a key from the store.
	// Returns ErrKeyNotFound if the key is absent.
	Remove(key string) error

	// Close releases the engine's resources. The engine must not be
	// used after Close returns.
	Close() error
}
