package store

import "github.com/jpalmerr/walkin/directory"

// Store defines the interface of the shared location store.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Read returns the current result. It never waits for notifications.
	Read() directory.Result

	// Publish replaces the current result and notifies all subscribers.
	// It returns false if the store is closed and the result was discarded.
	Publish(next directory.Result) bool

	// Subscribe registers fn to be called on every published result.
	// The returned function removes the subscription and is safe to call
	// more than once.
	Subscribe(fn func(directory.Result)) (unsubscribe func())

	// Close tears the store down. Later publishes are discarded.
	Close()
}
