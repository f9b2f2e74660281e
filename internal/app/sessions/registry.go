// Package sessions keeps one session store per browser client.
package sessions

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"aurahr/internal/domain/auth"
	"aurahr/internal/domain/notifications"
	"aurahr/internal/platform/jobs"
	"aurahr/internal/platform/metrics"
	"aurahr/internal/platform/storage"
)

const JobSweep = "session_sweep"

type Options struct {
	Latency          time.Duration
	OperationTimeout time.Duration
	IdleTTL          time.Duration
	SweepInterval    time.Duration
	FeedLimit        int
	Logger           *slog.Logger
	Metrics          *metrics.Collector
}

// Client is the in-memory half of a browser session. Its durable half lives
// in the shared backend under the client's key prefix.
type Client struct {
	ID    string
	Store *auth.Store
	Guard *auth.Guard
	Feed  *notifications.Feed

	lastSeen time.Time
}

type Registry struct {
	kv    storage.KV
	creds auth.CredentialSource
	opts  Options
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
	group   singleflight.Group
}

func NewRegistry(kv storage.KV, creds auth.CredentialSource, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		kv:      kv,
		creds:   creds,
		opts:    opts,
		now:     time.Now,
		clients: map[string]*Client{},
	}
}

// Get returns the client's session, creating and restoring it on first use.
// Concurrent first requests for one client share a single restore.
func (r *Registry) Get(ctx context.Context, clientID string) *Client {
	if c := r.lookup(clientID); c != nil {
		return c
	}

	v, _, _ := r.group.Do(clientID, func() (any, error) {
		if c := r.lookup(clientID); c != nil {
			return c, nil
		}
		c := r.newClient(clientID)
		c.Store.Restore(context.WithoutCancel(ctx))

		r.mu.Lock()
		c.lastSeen = r.now()
		r.clients[clientID] = c
		n := len(r.clients)
		r.mu.Unlock()

		r.opts.Metrics.SetActiveClients(n)
		return c, nil
	})
	return v.(*Client)
}

func (r *Registry) lookup(clientID string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[clientID]
	if ok {
		c.lastSeen = r.now()
	}
	return c
}

func (r *Registry) newClient(clientID string) *Client {
	logger := r.opts.Logger.With("client", clientID)
	feed := notifications.NewFeed(r.opts.FeedLimit)
	store := auth.NewStore(
		storage.NewPrefixed(r.kv, storage.ClientPrefix(clientID)),
		r.creds,
		auth.WithLatency(r.opts.Latency),
		auth.WithOperationTimeout(r.opts.OperationTimeout),
		auth.WithLogger(logger),
		auth.WithNotifier(notifications.Multi{feed, notifications.LogNotifier{Logger: logger}}),
	)
	return &Client{
		ID:    clientID,
		Store: store,
		Guard: auth.NewGuard(store),
		Feed:  feed,
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// IDs lists the clients held in memory, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.clients))
	for id := range r.clients {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Sweep forgets clients idle for longer than the idle TTL that have no open
// subscriptions. Their persisted sessions are untouched and are restored on
// the next request.
func (r *Registry) Sweep() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.opts.IdleTTL)

	r.mu.Lock()
	removed := 0
	for id, c := range r.clients {
		if c.lastSeen.After(cutoff) || c.Store.Watchers() > 0 {
			continue
		}
		delete(r.clients, id)
		removed++
	}
	n := len(r.clients)
	r.mu.Unlock()

	if removed > 0 {
		r.opts.Metrics.SetActiveClients(n)
	}
	return removed
}

// Schedule registers the idle sweep with the job runner.
func (r *Registry) Schedule(js *jobs.Service) {
	js.Every(JobSweep, r.opts.SweepInterval, func(context.Context) (any, error) {
		removed := r.Sweep()
		return map[string]int{"removed": removed, "remaining": r.Len()}, nil
	})
}
