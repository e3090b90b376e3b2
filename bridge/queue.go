// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"sync"
	"sync/atomic"
)

// Queue is the unbounded FIFO between request goroutines and the
// Loop. Any number of Senders may send; only the Loop receives.
type Queue struct {
	mu      sync.Mutex
	items   []Request
	closed  bool
	senders int

	// ready holds one pending wakeup for the receiver. It is signalled
	// after every send and when the queue closes.
	ready chan struct{}
}

// NewQueue returns an open queue and its first send handle.
func NewQueue() (*Queue, *Sender) {
	queue := &Queue{
		ready:   make(chan struct{}, 1),
		senders: 1,
	}
	return queue, &Sender{queue: queue}
}

// Ready returns the receiver's wakeup channel. After a value arrives
// the receiver drains with TryReceive until it reports false.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// TryReceive pops the oldest request without blocking.
func (q *Queue) TryReceive() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Request{}, false
	}
	request := q.items[0]
	q.items[0] = Request{}
	q.items = q.items[1:]
	return request, true
}

// Drained reports whether the queue is closed and holds no requests.
// Once true it stays true.
func (q *Queue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Shutdown closes the queue regardless of live senders and abandons
// every request still waiting, so their callers see ErrAbandoned. The
// Loop calls it when it cannot start.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	pending := q.items
	q.items = nil
	q.closed = true
	q.mu.Unlock()

	for _, request := range pending {
		request.Responder.Abandon()
	}
	q.signal()
}

func (q *Queue) push(request Request) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, request)
	q.mu.Unlock()
	q.signal()
	return nil
}

func (q *Queue) retain() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.senders++
}

func (q *Queue) release() {
	q.mu.Lock()
	q.senders--
	last := q.senders == 0
	if last {
		q.closed = true
	}
	q.mu.Unlock()
	if last {
		q.signal()
	}
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Sender is a reference-counted send handle for a Queue. Clone hands
// out another reference for a component that submits commands; each
// reference is closed exactly once by its owner. The queue closes when
// the last reference is closed.
type Sender struct {
	queue  *Queue
	closed atomic.Bool
}

// Clone returns a new handle to the same queue. Panics if s is closed.
func (s *Sender) Clone() *Sender {
	if s.closed.Load() {
		panic("bridge.Sender: Clone of a closed handle")
	}
	s.queue.retain()
	return &Sender{queue: s.queue}
}

// Close drops this handle's reference. Further calls are no-ops.
func (s *Sender) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.queue.release()
	}
}

// Send enqueues request without blocking. It fails with ErrClosed if
// this handle is closed or the queue no longer accepts requests.
func (s *Sender) Send(request Request) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.queue.push(request)
}
