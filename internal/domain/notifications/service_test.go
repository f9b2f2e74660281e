package notifications

import (
	"context"
	"testing"
)

func TestFeedDrainClearsPending(t *testing.T) {
	feed := NewFeed(5)
	feed.Notify(context.Background(), Toast{Title: "a"})
	feed.Notify(context.Background(), Toast{Title: "b"})

	got := feed.Drain()
	if len(got) != 2 || got[0].Title != "a" || got[1].Title != "b" {
		t.Fatalf("unexpected toasts: %+v", got)
	}
	if feed.Len() != 0 {
		t.Fatalf("expected empty feed after drain, got %d", feed.Len())
	}
}

func TestFeedDropsOldestWhenFull(t *testing.T) {
	feed := NewFeed(2)
	for _, title := range []string{"one", "two", "three"} {
		feed.Notify(context.Background(), Toast{Title: title})
	}

	got := feed.Drain()
	if len(got) != 2 || got[0].Title != "two" || got[1].Title != "three" {
		t.Fatalf("unexpected toasts: %+v", got)
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewFeed(1), NewFeed(1)
	Multi{a, nil, b}.Notify(context.Background(), Toast{Title: "x", Severity: SeverityDestructive})

	if a.Len() != 1 || b.Len() != 1 {
		t.Fatalf("expected both feeds to receive the toast")
	}
}
