// Package storage provides the local persistence primitives for greeting
// cards: host key-value backends and the RecordStore that keeps the whole
// collection under one namespaced key.
package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned when a serialized collection is larger than
// the store allows.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ErrInvalidKey is returned by backends for keys they cannot address.
var ErrInvalidKey = errors.New("invalid storage key")

// Backend is a host key-value storage, the equivalent of a browser's
// localStorage. Values are opaque strings.
type Backend interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent; that is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key succeeds.
	Remove(ctx context.Context, key string) error
}
