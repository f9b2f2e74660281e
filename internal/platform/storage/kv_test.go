package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	value := []byte(`{"id":"1"}`)
	if err := kv.Set(ctx, "user", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'x'

	got, err := kv.Get(ctx, "user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"id":"1"}` {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}

	if err := kv.Remove(ctx, "user"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := kv.Remove(ctx, "user"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if _, err := kv.Get(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewMemory().Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPrefixedIsolatesClients(t *testing.T) {
	ctx := context.Background()
	base := NewMemory()
	a := NewPrefixed(base, ClientPrefix("a"))
	b := NewPrefixed(base, ClientPrefix("b"))

	if err := a.Set(ctx, "user", []byte("alice")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := b.Get(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("client b should not see client a state, got %v", err)
	}

	raw, err := base.Get(ctx, "client:a:user")
	if err != nil || string(raw) != "alice" {
		t.Fatalf("expected namespaced key in backend, got %q (%v)", raw, err)
	}
}
