package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"aurahr/internal/platform/crypto"
)

func TestSealedEncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	sealer, err := crypto.NewSealer("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	backend := NewMemory()
	kv := NewSealed(backend, sealer)

	if err := NewPrefixed(kv, ClientPrefix("a")).Set(ctx, "user", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, err := backend.Get(ctx, "client:a:user")
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if bytes.Contains(raw, []byte(`"id"`)) {
		t.Fatal("backend holds plaintext")
	}

	got, err := NewPrefixed(kv, ClientPrefix("a")).Get(ctx, "user")
	if err != nil || string(got) != `{"id":"1"}` {
		t.Fatalf("get: %q %v", got, err)
	}

	if err := backend.Set(ctx, "client:b:user", raw); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if _, err := NewPrefixed(kv, ClientPrefix("b")).Get(ctx, "user"); !errors.Is(err, crypto.ErrMalformed) || !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected copied value to be rejected, got %v", err)
	}

	if _, err := kv.Get(ctx, "client:c:user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found to pass through, got %v", err)
	}
	if err := kv.Remove(ctx, "client:a:user"); err != nil {
		t.Fatalf("remove: %v", err)
	}
}
