package notifications

import (
	"context"
	"log/slog"
	"sync"
)

type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

type Toast struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

type Notifier interface {
	Notify(ctx context.Context, toast Toast)
}

// Feed buffers toasts for one client until they are drained. When full, the
// oldest toast is dropped.
type Feed struct {
	mu      sync.Mutex
	limit   int
	pending []Toast
}

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 20
	}
	return &Feed{limit: limit, pending: make([]Toast, 0, limit)}
}

func (f *Feed) Notify(_ context.Context, toast Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == f.limit {
		f.pending = append(f.pending[:0], f.pending[1:]...)
	}
	f.pending = append(f.pending, toast)
}

func (f *Feed) Drain() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Toast, len(f.pending))
	copy(out, f.pending)
	f.pending = f.pending[:0]
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, toast Toast) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if toast.Severity == SeverityDestructive {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "notification", "title", toast.Title, "message", toast.Message, "severity", toast.Severity)
}

// Multi fans a toast out to every notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, toast Toast) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, toast)
		}
	}
}
