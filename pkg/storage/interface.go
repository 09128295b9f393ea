package storage

import "encoding/json"

// Store is a persistent string -> JSON payload mapping.
// Every Put is durable before it returns (write-through). Keys are never removed.
type Store interface {
	// Get returns the payload stored under key and whether it exists
	Get(key string) (value json.RawMessage, found bool, err error)

	// Put inserts or overwrites key and persists the change immediately
	Put(key string, value json.RawMessage) error

	// Keys returns every stored key, sorted
	Keys() ([]string, error)

	// Len returns the number of stored keys
	Len() int

	// Close releases the underlying resources
	Close() error
}
