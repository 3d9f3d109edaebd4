package history

import "sync"

// eventBuffer is an unbounded FIFO between scheduler workers and the
// progress-stream consumer. Workers must never stall on a slow consumer, so
// Send grows the ring instead of blocking.
type eventBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []ProgressEvent
	head   int
	count  int
	closed bool
}

func newEventBuffer(initialCapacity int) *eventBuffer {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &eventBuffer{buf: make([]ProgressEvent, initialCapacity)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send enqueues an event. Returns false if the buffer is closed.
func (b *eventBuffer) Send(ev ProgressEvent) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	if b.count == len(b.buf) {
		b.grow()
	}

	b.buf[(b.head+b.count)%len(b.buf)] = ev
	b.count++
	b.cond.Signal()
	return true
}

// Receive dequeues the next event, blocking until one is available or the
// buffer is closed and drained.
func (b *eventBuffer) Receive() (ProgressEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}

	if b.count == 0 {
		return ProgressEvent{}, false
	}

	ev := b.buf[b.head]
	b.buf[b.head] = ProgressEvent{}
	b.head = (b.head + 1) % len(b.buf)
	b.count--
	return ev, true
}

// Close marks the buffer closed. Queued events remain receivable.
func (b *eventBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}

// grow doubles capacity, caller holds the lock.
func (b *eventBuffer) grow() {
	next := make([]ProgressEvent, len(b.buf)*2)
	for i := 0; i < b.count; i++ {
		next[i] = b.buf[(b.head+i)%len(b.buf)]
	}
	b.buf = next
	b.head = 0
}
