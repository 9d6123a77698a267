// Package mailbox hands assistant replies from the orchestrator to the one
// streaming consumer of each session.
package mailbox

import "sync"

// Finished is the reserved payload that ends a session's stream. Publishing it
// tells the subscriber to stop pulling and drop its subscription.
const Finished = "FINISHED"

// Mailbox is a process-scoped registry of per-session reply queues. It is a
// single-consumer, multi-producer mailbox: at most one queue exists per
// session id, publishes to sessions without a subscriber are dropped, and the
// publisher never blocks regardless of queue depth.
//
// Construct one at startup and inject it; there is no package-level instance.
type Mailbox struct {
	mu    sync.Mutex
	boxes map[string]*box
}

type box struct {
	mu        sync.Mutex
	pending   []string
	out       chan string
	ready     chan struct{} // 1-buffered wakeup signal
	done      chan struct{}
	closeOnce sync.Once
}

// New creates an empty Mailbox.
func New() *Mailbox {
	return &Mailbox{boxes: make(map[string]*box)}
}

// Subscribe registers a reply channel for sessionID and returns it. Pulling
// from the channel blocks until a payload arrives; the channel is closed when
// the subscription is dropped (a matching Unsubscribe or a replacing
// Subscribe), so consumers should stop on the Finished sentinel.
//
// A second subscribe for the same id silently replaces the first; the prior
// subscriber stops receiving new items. One live subscriber per session is
// the supported shape — replacement exists to survive client reconnects, not
// to fan out.
func (m *Mailbox) Subscribe(sessionID string) <-chan string {
	b := &box{
		out:   make(chan string),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	m.mu.Lock()
	if prior, ok := m.boxes[sessionID]; ok {
		prior.close()
	}
	m.boxes[sessionID] = b
	m.mu.Unlock()

	go b.pump()
	return b.out
}

// Publish appends payload to the session's pending queue. When no subscriber
// exists for sessionID the payload is dropped: the conversation simply has no
// live listener.
func (m *Mailbox) Publish(sessionID, payload string) {
	m.mu.Lock()
	b, ok := m.boxes[sessionID]
	m.mu.Unlock()
	if !ok {
		return
	}

	b.mu.Lock()
	b.pending = append(b.pending, payload)
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// Unsubscribe removes the session's queue when ch is the channel currently
// registered for sessionID. A stale channel from a replaced subscription is a
// no-op, so a superseded consumer tearing down cannot evict its replacement.
// Idempotent. An in-flight turn that publishes after this becomes a no-op.
func (m *Mailbox) Unsubscribe(sessionID string, ch <-chan string) {
	m.mu.Lock()
	b, ok := m.boxes[sessionID]
	if ok && b.out == ch {
		delete(m.boxes, sessionID)
	} else {
		ok = false
	}
	m.mu.Unlock()
	if ok {
		b.close()
	}
}

// Subscribed reports whether sessionID currently has a live queue.
func (m *Mailbox) Subscribed(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.boxes[sessionID]
	return ok
}

// pump moves pending payloads to the subscriber in FIFO order. It exits when
// the box is closed, even mid-send, so an abandoned subscriber cannot strand
// the goroutine.
func (b *box) pump() {
	defer close(b.out)
	for {
		select {
		case <-b.done:
			return
		case <-b.ready:
		}
		for {
			b.mu.Lock()
			if len(b.pending) == 0 {
				b.mu.Unlock()
				break
			}
			item := b.pending[0]
			b.pending = b.pending[1:]
			b.mu.Unlock()

			select {
			case b.out <- item:
			case <-b.done:
				return
			}
		}
	}
}

func (b *box) close() {
	b.closeOnce.Do(func() { close(b.done) })
}
