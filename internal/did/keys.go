package did

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"

	jose "github.com/go-jose/go-jose/v4"
)

// GenerateKey produces a fresh Ed25519 keypair for a new DID.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return pub, priv, nil
}

// PublicKeyJWK renders the DID's verification key as a JSON Web Key.
// The key ID is the DID's first verification-method fragment.
func PublicKeyJWK(didID string, pub ed25519.PublicKey) (string, error) {
	jwk := jose.JSONWebKey{
		Key:       pub,
		KeyID:     didID + "#key-1",
		Algorithm: "EdDSA",
		Use:       "sig",
	}
	data, err := json.Marshal(jwk)
	if err != nil {
		return "", fmt.Errorf("marshal jwk: %w", err)
	}
	return string(data), nil
}

// ParsePublicKeyJWK recovers the Ed25519 public key from its JWK rendering.
func ParsePublicKeyJWK(data string) (ed25519.PublicKey, error) {
	var jwk jose.JSONWebKey
	if err := json.Unmarshal([]byte(data), &jwk); err != nil {
		return nil, fmt.Errorf("unmarshal jwk: %w", err)
	}
	pub, ok := jwk.Key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("jwk key type %T is not ed25519", jwk.Key)
	}
	return pub, nil
}

// Keystore holds the private signing keys of locally created DIDs.
// Key escrow beyond process lifetime is an external custody concern.
type Keystore interface {
	Put(did string, key ed25519.PrivateKey) error
	Get(did string) (ed25519.PrivateKey, error)
}

// MemoryKeystore is an in-process Keystore.
type MemoryKeystore struct {
	mu   sync.RWMutex
	keys map[string]ed25519.PrivateKey
}

// NewMemoryKeystore creates an empty MemoryKeystore.
func NewMemoryKeystore() *MemoryKeystore {
	return &MemoryKeystore{keys: make(map[string]ed25519.PrivateKey)}
}

// Put implements Keystore.
func (k *MemoryKeystore) Put(did string, key ed25519.PrivateKey) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[did] = key
	return nil
}

// Get implements Keystore.
func (k *MemoryKeystore) Get(did string) (ed25519.PrivateKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[did]
	if !ok {
		return nil, fmt.Errorf("no signing key for %s", did)
	}
	return key, nil
}
