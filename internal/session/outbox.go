package session

import (
	"encoding/json"
	"sync"
)

// outboxMaxEvents and outboxMaxBytes bound the per-session outbound queue
// per spec §5: 64 events or 256 KiB, whichever limit is hit first.
const (
	outboxMaxEvents = 64
	outboxMaxBytes  = 256 * 1024
)

type queuedEvent struct {
	typ  string
	data []byte
}

// outbox is the bounded, backpressure-aware server->client event queue.
// Modeled on the teacher's non-blocking broadcast select/default idiom
// (cmd/gateway/gpu.go's gpuHub.broadcast), generalized from "drop the
// newest" to "drop the oldest droppable (partial) event" per spec §5.
type outbox struct {
	mu       sync.Mutex
	queue    []queuedEvent
	bytes    int
	closed   bool
	notifyCh chan struct{}
}

func newOutbox() *outbox {
	return &outbox{notifyCh: make(chan struct{}, 1)}
}

// Enqueue serializes ev and admits it to the queue, making room by
// dropping the oldest "partial" event if the queue is full. It returns
// false if ev itself is a non-droppable type (final/coach/error) and no
// room could be made — the caller must then close the session with
// error.kind="backpressure" (spec §5).
func (o *outbox) Enqueue(ev ServerEvent) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		return true
	}
	droppable := ev.Type == eventPartial

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return true
	}

	for len(o.queue) >= outboxMaxEvents || o.bytes+len(data) > outboxMaxBytes {
		idx := o.oldestDroppableIndexLocked()
		if idx < 0 {
			return droppable // dropping the newcomer itself is fine if it's a partial
		}
		o.bytes -= len(o.queue[idx].data)
		o.queue = append(o.queue[:idx], o.queue[idx+1:]...)
	}

	o.queue = append(o.queue, queuedEvent{typ: ev.Type, data: data})
	o.bytes += len(data)
	select {
	case o.notifyCh <- struct{}{}:
	default:
	}
	return true
}

func (o *outbox) oldestDroppableIndexLocked() int {
	for i, q := range o.queue {
		if q.typ == eventPartial {
			return i
		}
	}
	return -1
}

// Dequeue blocks until an event is available or done fires.
func (o *outbox) Dequeue(done <-chan struct{}) ([]byte, bool) {
	for {
		o.mu.Lock()
		if len(o.queue) > 0 {
			item := o.queue[0]
			o.queue = o.queue[1:]
			o.bytes -= len(item.data)
			o.mu.Unlock()
			return item.data, true
		}
		o.mu.Unlock()

		select {
		case <-o.notifyCh:
		case <-done:
			return nil, false
		}
	}
}

// Close marks the outbox closed; further Enqueue calls are no-ops.
func (o *outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}
