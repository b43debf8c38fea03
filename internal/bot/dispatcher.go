package bot

import (
	"context"
	"sync"

	"printbot/internal/event"
)

// dispatcher serializes event handling per user while letting distinct users
// run concurrently. Each user gets a FIFO queue drained by a lazily started
// worker goroutine; the worker exits once the queue is empty, so idle users
// cost nothing.
type dispatcher struct {
	mu     sync.Mutex
	queues map[int64][]event.Event
	active map[int64]bool
	handle func(context.Context, event.Event)
	wg     sync.WaitGroup
}

func newDispatcher(handle func(context.Context, event.Event)) *dispatcher {
	return &dispatcher{
		queues: make(map[int64][]event.Event),
		active: make(map[int64]bool),
		handle: handle,
	}
}

// Dispatch enqueues the event for its user, starting a worker if none is
// draining that user's queue.
func (d *dispatcher) Dispatch(ctx context.Context, ev event.Event) {
	userID := ev.User()

	d.mu.Lock()
	d.queues[userID] = append(d.queues[userID], ev)
	if !d.active[userID] {
		d.active[userID] = true
		d.wg.Add(1)
		go d.drain(ctx, userID)
	}
	d.mu.Unlock()
}

func (d *dispatcher) drain(ctx context.Context, userID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		queue := d.queues[userID]
		if len(queue) == 0 {
			d.active[userID] = false
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		ev := queue[0]
		d.queues[userID] = queue[1:]
		d.mu.Unlock()

		d.handle(ctx, ev)
	}
}

// Wait blocks until all in-flight workers finish. Used during shutdown.
func (d *dispatcher) Wait() {
	d.wg.Wait()
}
