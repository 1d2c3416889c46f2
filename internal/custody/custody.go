// Package custody derives and serves symmetric encryption keys. The Document
// Pipeline only ever records the opaque key handle; the key bytes stay inside
// this package's Keeper.
package custody

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrUnknownHandle is returned when no key exists for the given handle.
var ErrUnknownHandle = errors.New("unknown key handle")

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// Keeper derives per-document keys from a master secret via HKDF. A key is
// fully determined by its handle, so the Keeper holds no per-key state and
// the handle is safe to persist.
type Keeper struct {
	master []byte
}

// NewKeeper creates a Keeper over the given master secret.
func NewKeeper(master []byte) (*Keeper, error) {
	if len(master) < 16 {
		return nil, fmt.Errorf("master secret too short: %d bytes", len(master))
	}
	cp := make([]byte, len(master))
	copy(cp, master)
	return &Keeper{master: cp}, nil
}

// NewKey mints a fresh key handle. The handle is random; the key bytes are
// derived from it and the master secret.
func (k *Keeper) NewKey() (handle string, err error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key handle: %w", err)
	}
	return "hkdf-" + hex.EncodeToString(buf), nil
}

// Key returns the key bytes for a handle.
func (k *Keeper) Key(handle string) ([]byte, error) {
	if len(handle) < 6 || handle[:5] != "hkdf-" {
		return nil, fmt.Errorf("handle %q: %w", handle, ErrUnknownHandle)
	}
	if _, err := hex.DecodeString(handle[5:]); err != nil {
		return nil, fmt.Errorf("handle %q: %w", handle, ErrUnknownHandle)
	}

	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, k.master, []byte(handle), []byte("trustcore-document-key"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
