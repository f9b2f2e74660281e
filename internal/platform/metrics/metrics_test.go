package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecord(t *testing.T) {
	c := New()
	c.Record(http.MethodGet, "/api/v1/employees", 200, 20*time.Millisecond)
	c.Record(http.MethodGet, "/api/v1/employees", 200, 30*time.Millisecond)
	c.Record(http.MethodPost, "", 404, time.Millisecond)

	if got := testutil.ToFloat64(c.requests.WithLabelValues("GET", "/api/v1/employees", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(c.requests.WithLabelValues("POST", "unmatched", "404")); got != 1 {
		t.Fatalf("expected unmatched route label, got %v", got)
	}
}

func TestCollectorDomainCounters(t *testing.T) {
	c := New()
	c.RecordAuth("login", "success")
	c.RecordAuth("login", "invalid_credentials")
	c.RecordAuth("login", "success")
	c.RecordGuard("redirect", "login")
	c.SetActiveClients(3)

	if got := testutil.ToFloat64(c.authAttempts.WithLabelValues("login", "success")); got != 2 {
		t.Fatalf("expected 2 successful logins, got %v", got)
	}
	if got := testutil.ToFloat64(c.guardDecisions.WithLabelValues("redirect", "login")); got != 1 {
		t.Fatalf("expected 1 guard redirect, got %v", got)
	}
	if got := testutil.ToFloat64(c.activeClients); got != 3 {
		t.Fatalf("expected 3 active clients, got %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.Record("GET", "/", 200, time.Millisecond)
	c.RecordAuth("login", "success")
	c.RecordGuard("render", "")
	c.SetActiveClients(1)
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.RecordAuth("signup", "account_exists")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(string(body), `aurahr_auth_attempts_total{operation="signup",outcome="account_exists"} 1`) {
		t.Fatalf("metric missing from exposition:\n%s", body)
	}
}
