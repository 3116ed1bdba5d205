package scan

import "errors"

// ErrSlotEmpty is returned by Slots.Get when nothing is stored under a key
var ErrSlotEmpty = errors.New("slot is empty")

// Slots defines the interface for the key-value persistence layer. Each
// slot holds one opaque value that is always written in full.
type Slots interface {
	// Get returns the value stored under key, or ErrSlotEmpty
	Get(key string) ([]byte, error)

	// Set overwrites the value stored under key
	Set(key string, data []byte) error

	// Remove deletes the value stored under key; removing an empty slot is not an error
	Remove(key string) error

	// Close releases the underlying resources
	Close() error
}
