package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"aurahr/internal/domain/auth"
	"aurahr/internal/platform/jobs"
	"aurahr/internal/platform/storage"
)

var (
	credsOnce sync.Once
	creds     *auth.MemoryCredentials
)

func demoCredentials(t *testing.T) *auth.MemoryCredentials {
	t.Helper()
	credsOnce.Do(func() {
		c, err := auth.NewDemoCredentials()
		if err != nil {
			panic(err)
		}
		creds = c
	})
	return creds
}

func newTestRegistry(t *testing.T, kv storage.KV) *Registry {
	t.Helper()
	return NewRegistry(kv, demoCredentials(t), Options{IdleTTL: time.Minute, FeedLimit: 5})
}

func TestGetReturnsResolvedSession(t *testing.T) {
	r := newTestRegistry(t, storage.NewMemory())

	c := r.Get(context.Background(), "client-a")
	if c.Store.Snapshot().Resolving {
		t.Fatal("session must be resolved before it is handed out")
	}
	if r.Get(context.Background(), "client-a") != c {
		t.Fatal("expected the same client on second lookup")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 client, got %d", r.Len())
	}
}

func TestGetRestoresPersistedSession(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()

	first := newTestRegistry(t, kv)
	c := first.Get(ctx, "client-a")
	if _, err := c.Store.Login(ctx, "hr@aurahr.com", auth.DemoSecret); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// A fresh registry stands in for a process restart.
	second := newTestRegistry(t, kv)
	restored := second.Get(ctx, "client-a").Store.Snapshot()
	if restored.Identity == nil || restored.Identity.Email != "hr@aurahr.com" {
		t.Fatalf("expected restored hr session, got %+v", restored)
	}

	other := second.Get(ctx, "client-b").Store.Snapshot()
	if other.Identity != nil {
		t.Fatal("clients must not share sessions")
	}
}

func TestGetCancelledContextStillRestores(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	c := newTestRegistry(t, kv).Get(ctx, "client-a")
	if _, err := c.Store.Login(ctx, "admin@aurahr.com", auth.DemoSecret); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	got := newTestRegistry(t, kv).Get(cancelled, "client-a").Store.Snapshot()
	if got.Identity == nil {
		t.Fatal("restore should not depend on the caller's cancellation")
	}
}

func TestConcurrentGetSharesOneClient(t *testing.T) {
	r := newTestRegistry(t, storage.NewMemory())

	const n = 16
	results := make([]*Client, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Get(context.Background(), "client-a")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent lookups returned different clients")
		}
	}
}

func TestLoginToastsReachFeed(t *testing.T) {
	r := newTestRegistry(t, storage.NewMemory())
	c := r.Get(context.Background(), "client-a")

	if _, err := c.Store.Login(context.Background(), "hr@aurahr.com", "wrong-secret"); err == nil {
		t.Fatal("expected login failure")
	}
	toasts := c.Feed.Drain()
	if len(toasts) != 1 || toasts[0].Title != "Login failed" {
		t.Fatalf("unexpected toasts %+v", toasts)
	}
}

func TestSweepDropsIdleClientsOnly(t *testing.T) {
	r := newTestRegistry(t, storage.NewMemory())
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	ctx := context.Background()
	r.Get(ctx, "idle")
	watched := r.Get(ctx, "watched")
	_, unsubscribe := watched.Store.Subscribe()
	defer unsubscribe()

	now = now.Add(30 * time.Second)
	r.Get(ctx, "fresh")

	now = now.Add(45 * time.Second)
	if removed := r.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "fresh" || ids[1] != "watched" {
		t.Fatalf("unexpected remaining clients %v", ids)
	}
}

func TestScheduleRegistersSweep(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), demoCredentials(t), Options{IdleTTL: time.Nanosecond, SweepInterval: 5 * time.Millisecond})
	r.Get(context.Background(), "client-a")

	js := jobs.New(nil)
	r.Schedule(js)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- js.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(2 * time.Second)
	for r.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweep job never removed the idle client")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
