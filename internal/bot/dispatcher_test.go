package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"printbot/internal/event"
)

func TestDispatcherPerUserOrdering(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int64][]string)

	d := newDispatcher(func(_ context.Context, ev event.Event) {
		msg := ev.(event.TextMessage)
		mu.Lock()
		seen[msg.UserID] = append(seen[msg.UserID], msg.Text)
		mu.Unlock()
	})

	const users = 4
	const events = 50
	for i := 0; i < events; i++ {
		for u := int64(1); u <= users; u++ {
			d.Dispatch(context.Background(), event.TextMessage{
				UserID: u, ChatID: u, Text: fmt.Sprintf("msg-%d", i),
			})
		}
	}
	d.Wait()

	for u := int64(1); u <= users; u++ {
		got := seen[u]
		if len(got) != events {
			t.Fatalf("user %d: handled %d events, want %d", u, len(got), events)
		}
		for i, text := range got {
			if want := fmt.Sprintf("msg-%d", i); text != want {
				t.Fatalf("user %d: event %d = %q, want %q (order violated)", u, i, text, want)
			}
		}
	}
}

func TestDispatcherCrossUserConcurrency(t *testing.T) {
	block := make(chan struct{})
	user2Done := make(chan struct{})

	d := newDispatcher(func(_ context.Context, ev event.Event) {
		switch ev.User() {
		case 1:
			<-block
		case 2:
			close(user2Done)
		}
	})

	d.Dispatch(context.Background(), event.TextMessage{UserID: 1, ChatID: 1, Text: "a"})
	d.Dispatch(context.Background(), event.TextMessage{UserID: 2, ChatID: 2, Text: "b"})

	select {
	case <-user2Done:
		// User 2 progressed while user 1 was blocked.
	case <-time.After(2 * time.Second):
		t.Fatal("user 2 was starved by user 1's in-flight event")
	}

	close(block)
	d.Wait()
}

func TestDispatcherWorkerExitsWhenDrained(t *testing.T) {
	d := newDispatcher(func(context.Context, event.Event) {})

	d.Dispatch(context.Background(), event.TextMessage{UserID: 1, ChatID: 1, Text: "a"})
	d.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queues) != 0 {
		t.Errorf("queues not cleaned up: %+v", d.queues)
	}
	if d.active[1] {
		t.Error("worker still marked active after drain")
	}
}
