package contentstore_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/quantumtrust/trustcore/internal/contentstore"
)

var ctx = context.Background()

func stores(t *testing.T) map[string]contentstore.Store {
	t.Helper()
	fileStore, err := contentstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]contentstore.Store{
		"memory": contentstore.NewMemoryStore(),
		"file":   fileStore,
	}
}

func TestPutGet_roundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			data := []byte("hello world")
			addr, err := s.Put(ctx, data)
			if err != nil {
				t.Fatal(err)
			}
			if addr != contentstore.Address(data) {
				t.Errorf("address %q is not the content hash", addr)
			}

			got, err := s.Get(ctx, addr)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("round trip mismatch: %q", got)
			}
		})
	}
}

func TestPut_isIdempotent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a1, err := s.Put(ctx, []byte("same"))
			if err != nil {
				t.Fatal(err)
			}
			a2, err := s.Put(ctx, []byte("same"))
			if err != nil {
				t.Fatal(err)
			}
			if a1 != a2 {
				t.Errorf("same content, different addresses: %q vs %q", a1, a2)
			}
		})
	}
}

func TestGet_notFound(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "deadbeefdeadbeef")
			if !errors.Is(err, contentstore.ErrNotFound) {
				t.Errorf("got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			addr, err := s.Put(ctx, []byte("to delete"))
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Delete(ctx, addr); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, addr); !errors.Is(err, contentstore.ErrNotFound) {
				t.Errorf("got %v after delete, want ErrNotFound", err)
			}
			// Double delete is fine.
			if err := s.Delete(ctx, addr); err != nil {
				t.Errorf("second delete: %v", err)
			}
		})
	}
}

func TestEmptyBlob(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			addr, err := s.Put(ctx, nil)
			if err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(ctx, addr)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 0 {
				t.Errorf("empty blob round trip: got %d bytes", len(got))
			}
		})
	}
}
