package relay

import (
	"context"
	"sync"
)

// mailbox is an unbounded FIFO queue with any number of producers and one consumer.
// push never blocks, so a slow consumer never stalls the goroutine feeding it.
type mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	ready  chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{ready: make(chan struct{}, 1)}
}

// push appends v. It returns false if the mailbox is closed.
func (m *mailbox[T]) push(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, v)
	m.mu.Unlock()

	m.signal()
	return true
}

// pop removes and returns the oldest item, waiting for one if the mailbox is empty.
// Items pushed before close are still delivered; after that pop returns ok=false.
func (m *mailbox[T]) pop(ctx context.Context) (v T, ok bool, err error) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			v = m.items[0]
			var zero T
			m.items[0] = zero
			m.items = m.items[1:]
			m.mu.Unlock()
			return v, true, nil
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return v, false, nil
		}

		select {
		case <-m.ready:
		case <-ctx.Done():
			return v, false, ctx.Err()
		}
	}
}

// close stops accepting new items and wakes the consumer.
func (m *mailbox[T]) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.signal()
}

// len returns the number of queued items.
func (m *mailbox[T]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *mailbox[T]) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}
