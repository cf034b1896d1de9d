// Package repository defines storage interfaces implemented by concrete backends.
package repository

import "context"

// KVRepository is durable client-side key-value storage, the CLI's
// counterpart of browser local storage.
type KVRepository interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the underlying resources.
	Close() error
}
