// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"sync/atomic"
)

// Responder states. The slot leaves slotPending exactly once.
const (
	slotPending int32 = iota
	slotDelivered
	slotAbandoned
)

// slot is the storage shared by one Responder and its Completion.
type slot struct {
	state atomic.Int32

	// done is closed when the state leaves slotPending. The result
	// fields are written before the close and read only after it.
	done     chan struct{}
	response Response
	err      error

	// receiverGone is set when the caller stops waiting.
	receiverGone atomic.Bool
	consumed     atomic.Bool
}

// Responder is the sending half of a single-use result slot. The
// worker side calls Send once, or Abandon if it cannot produce a
// result. Both are safe to call from any goroutine; only the first
// call has an effect.
type Responder struct {
	slot *slot
}

// Completion is the receiving half. Exactly one Wait consumes it.
type Completion struct {
	slot *slot
}

// NewResponder returns a connected Responder / Completion pair.
func NewResponder() (*Responder, *Completion) {
	s := &slot{done: make(chan struct{})}
	return &Responder{slot: s}, &Completion{slot: s}
}

// Send places the handler's result in the slot. It never blocks. It
// returns false when the result is known to go unobserved: the slot
// was already filled or abandoned, or the caller had stopped waiting.
func (r *Responder) Send(response Response, err error) bool {
	if !r.slot.state.CompareAndSwap(slotPending, slotDelivered) {
		return false
	}
	r.slot.response = response
	r.slot.err = err
	close(r.slot.done)
	return !r.slot.receiverGone.Load()
}

// Abandon terminates the slot without a result; the waiting caller
// receives ErrAbandoned. It is a no-op after Send.
func (r *Responder) Abandon() {
	if r.slot.state.CompareAndSwap(slotPending, slotAbandoned) {
		close(r.slot.done)
	}
}

// Wait blocks until the worker side sends or abandons, or until ctx is
// done. A result already in the slot is returned even when ctx is done.
// On ctx expiry the completion is abandoned from the caller's side: a
// later Send reports false and its result is dropped.
func (c *Completion) Wait(ctx context.Context) (Response, error) {
	if !c.slot.consumed.CompareAndSwap(false, true) {
		return nil, ErrConsumed
	}
	select {
	case <-c.slot.done:
		return c.result()
	default:
	}
	select {
	case <-c.slot.done:
		return c.result()
	case <-ctx.Done():
		c.slot.receiverGone.Store(true)
		return nil, ctx.Err()
	}
}

func (c *Completion) result() (Response, error) {
	if c.slot.state.Load() == slotAbandoned {
		return nil, ErrAbandoned
	}
	return c.slot.response, c.slot.err
}
