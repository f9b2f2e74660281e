package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aurahr"

// Collector owns a private registry so tests and multiple servers in one
// process never collide on the default registerer.
type Collector struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	authAttempts   *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	activeClients  prometheus.Gauge
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Session operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Access guard decisions by outcome.",
		}, []string{"outcome", "redirect"}),
		activeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_clients",
			Help:      "Client sessions currently held in memory.",
		}),
	}
	registry.MustRegister(
		c.requests,
		c.duration,
		c.authAttempts,
		c.guardDecisions,
		c.activeClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Record counts one finished request. route should be the matched route
// pattern, not the raw path.
func (c *Collector) Record(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordAuth(operation, outcome string) {
	if c == nil {
		return
	}
	c.authAttempts.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) RecordGuard(outcome, redirect string) {
	if c == nil {
		return
	}
	c.guardDecisions.WithLabelValues(outcome, redirect).Inc()
}

func (c *Collector) SetActiveClients(n int) {
	if c == nil {
		return
	}
	c.activeClients.Set(float64(n))
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
