// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package network

import (
	"context"
	"sync"
)

// Pending is the result of a NetworkManager request that has been sent
// but may not have been answered. It is resolved exactly once.
type Pending[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewPending returns an unresolved Pending.
func NewPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

// Resolved returns a Pending that already holds value and err.
func Resolved[T any](value T, err error) *Pending[T] {
	pending := NewPending[T]()
	pending.Resolve(value, err)
	return pending
}

// Resolve stores the result and wakes every waiter. Calls after the
// first are ignored.
func (p *Pending[T]) Resolve(value T, err error) {
	p.once.Do(func() {
		p.value = value
		p.err = err
		close(p.done)
	})
}

// Done is closed once the result is available.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the result is available or ctx is done. A result
// that is already available is returned even when ctx is done.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
