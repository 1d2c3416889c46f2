// Package contentstore provides a content-addressed blob store: the
// retrieval key is the SHA-256 of the stored bytes. Once Put returns an
// address the blob is assumed at-least-once durable.
package contentstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNotFound is returned when no blob exists at the given address.
var ErrNotFound = errors.New("no content at address")

// ErrUnavailable signals a transient store failure; callers may retry.
var ErrUnavailable = errors.New("content store unavailable")

// Store is the content-addressed blob store interface.
type Store interface {
	// Put stores the bytes and returns their content address.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the bytes stored at address, or ErrNotFound.
	Get(ctx context.Context, address string) ([]byte, error)

	// Delete removes the blob at address. Deleting an absent address is not
	// an error.
	Delete(ctx context.Context, address string) error
}

// Address computes the content address of data: its hex-encoded SHA-256.
func Address(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
