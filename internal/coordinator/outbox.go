package coordinator

import "sync"

// outboxBufferSize bounds how many un-delivered outbound frames a
// session can accumulate before new ones are dropped rather than
// blocking the coordinator (the coordinator never awaits inside a
// mutation).
const outboxBufferSize = 64

// Outbox is a single-producer (coordinator)/single-consumer (session
// writer pump) queue of serialized outbound frames. Send never blocks:
// a full or closed outbox silently drops the message.
type Outbox struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func newOutbox() *Outbox {
	return &Outbox{ch: make(chan []byte, outboxBufferSize)}
}

func (o *Outbox) send(msg []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.ch <- msg:
	default:
		// Full outbox: drop rather than block the coordinator.
	}
}

// Messages returns the channel the owning session reads outbound
// frames from.
func (o *Outbox) Messages() <-chan []byte {
	return o.ch
}

// Close marks the outbox closed and closes its channel. Safe to call
// once the owning session has no further reads pending and the
// coordinator has already forgotten this session (post-Disconnect).
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	close(o.ch)
}
