package custody_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/quantumtrust/trustcore/internal/custody"
)

func TestKeeper_deriveIsStable(t *testing.T) {
	k, err := custody.NewKeeper([]byte("0123456789abcdef"))
	if err != nil {
		t.Fatal(err)
	}

	handle, err := k.NewKey()
	if err != nil {
		t.Fatal(err)
	}

	k1, err := k.Key(handle)
	if err != nil {
		t.Fatal(err)
	}
	k2, err := k.Key(handle)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("same handle must derive the same key")
	}
	if len(k1) != custody.KeySize {
		t.Errorf("key length: got %d, want %d", len(k1), custody.KeySize)
	}

	other, err := k.NewKey()
	if err != nil {
		t.Fatal(err)
	}
	k3, _ := k.Key(other)
	if bytes.Equal(k1, k3) {
		t.Error("different handles must derive different keys")
	}
}

func TestKeeper_rejectsBadHandles(t *testing.T) {
	k, err := custody.NewKeeper([]byte("0123456789abcdef"))
	if err != nil {
		t.Fatal(err)
	}

	for _, h := range []string{"", "hkdf-", "hkdf-zz", "aes-abcd"} {
		if _, err := k.Key(h); !errors.Is(err, custody.ErrUnknownHandle) {
			t.Errorf("handle %q: got %v, want ErrUnknownHandle", h, err)
		}
	}
}

func TestNewKeeper_shortSecret(t *testing.T) {
	if _, err := custody.NewKeeper([]byte("short")); err == nil {
		t.Error("short master secret should be rejected")
	}
}
