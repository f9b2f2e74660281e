package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aurahr/internal/domain/auth"
	"aurahr/internal/platform/config"
	"aurahr/internal/platform/storage"
)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	frontend := t.TempDir()
	if err := os.WriteFile(filepath.Join(frontend, "index.html"), []byte("<html>aurahr</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	return config.Config{
		Addr:               "127.0.0.1:0",
		Environment:        "test",
		FrontendDir:        frontend,
		JWTSecret:          "test-secret",
		ClientTokenTTL:     time.Hour,
		StorageBackend:     backend,
		SQLitePath:         filepath.Join(t.TempDir(), "aurahr.db"),
		StorageTimeout:     time.Second,
		OperationTimeout:   time.Second,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
		LogLevel:           "error",
		SessionIdleTTL:     time.Minute,
		SessionSweepEvery:  time.Minute,
		NotificationBuffer: 10,
	}
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp
}

func login(t *testing.T, client *http.Client, baseURL, email string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": auth.DemoSecret})
	resp, err := client.Post(baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login 200, got %d", resp.StatusCode)
	}
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303 for %s, got %d", resp.Request.URL.Path, resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("expected redirect to %s, got %s", location, got)
	}
}

func TestPageGuardJourney(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.StorageMemory))
	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	browser := newBrowser(t)

	expectRedirect(t, get(t, browser, ts.URL+"/salary"), "/login")
	if resp := get(t, browser, ts.URL+"/login"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page, got %d", resp.StatusCode)
	}

	login(t, browser, ts.URL, "finance@aurahr.com")

	for _, path := range []string{"/", "/salary", "/employees"} {
		if resp := get(t, browser, ts.URL+path); resp.StatusCode != http.StatusOK {
			t.Fatalf("expected %s to render, got %d", path, resp.StatusCode)
		}
	}
	expectRedirect(t, get(t, browser, ts.URL+"/settings"), "/")
	expectRedirect(t, get(t, browser, ts.URL+"/attendance/today"), "/")

	resp, err := browser.Post(ts.URL+"/api/v1/auth/logout", "application/json", nil)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp.Body.Close()
	expectRedirect(t, get(t, browser, ts.URL+"/salary"), "/login")
}

func TestClientsAreIsolated(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.StorageMemory))
	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	admin := newBrowser(t)
	login(t, admin, ts.URL, "admin@aurahr.com")
	stranger := newBrowser(t)

	if resp := get(t, admin, ts.URL+"/settings"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected admin to open settings, got %d", resp.StatusCode)
	}
	expectRedirect(t, get(t, stranger, ts.URL+"/settings"), "/login")
	if n := app.Registry.Len(); n != 2 {
		t.Fatalf("expected two clients, got %d", n)
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	cfg := testConfig(t, config.StorageSQLite)
	browser := newBrowser(t)

	first, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	ts := httptest.NewServer(first.Router)
	login(t, browser, ts.URL, "hr@aurahr.com")
	ts.Close()
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := newTestApp(t, cfg)
	ts = httptest.NewServer(second.Router)
	defer ts.Close()
	// The cookie jar is keyed by host, and both servers listen on 127.0.0.1.
	if resp := get(t, browser, ts.URL+"/employees"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected restored session to render employees, got %d", resp.StatusCode)
	}
	expectRedirect(t, get(t, browser, ts.URL+"/settings/roles"), "/")
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.StorageMemory))
	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := newBrowser(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		if resp := get(t, client, ts.URL+path); resp.StatusCode != http.StatusOK {
			t.Fatalf("expected %s ok, got %d", path, resp.StatusCode)
		}
	}

	get(t, client, ts.URL+"/salary")
	resp, err := client.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `aurahr_guard_decisions_total{outcome="redirect",redirect="login"}`) {
		t.Fatalf("expected guard decision metric, got:\n%s", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "etcd")
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected unsupported backend to fail")
	}

	cfg = testConfig(t, config.StorageMemory)
	cfg.AccountsFile = filepath.Join(t.TempDir(), "missing.toml")
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected missing accounts file to fail")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.StorageMemory))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestOpenStorageSealsWhenKeyed(t *testing.T) {
	cfg := testConfig(t, config.StorageMemory)
	cfg.SessionEncryption = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	kv, err := OpenStorage(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	if _, ok := kv.(*storage.Sealed); !ok {
		t.Fatalf("expected sealed storage, got %T", kv)
	}

	cfg.SessionEncryption = "too-short"
	if _, err := OpenStorage(context.Background(), cfg); err == nil {
		t.Fatal("expected bad key to be rejected")
	}
}
