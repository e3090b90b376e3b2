// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// LoopState is the Loop's lifecycle position. It only moves forward.
type LoopState int32

const (
	// LoopStarting: the thread is being locked and Setup is running.
	LoopStarting LoopState = iota
	// LoopRunning: requests are received and dispatched.
	LoopRunning
	// LoopDraining: the queue has closed; in-flight tasks may still
	// call Do.
	LoopDraining
	// LoopStopped: every task has finished and the thread has exited.
	LoopStopped
)

func (s LoopState) String() string {
	switch s {
	case LoopStarting:
		return "starting"
	case LoopRunning:
		return "running"
	case LoopDraining:
		return "draining"
	case LoopStopped:
		return "stopped"
	default:
		return fmt.Sprintf("LoopState(%d)", int32(s))
	}
}

// LoopConfig configures a Loop.
type LoopConfig struct {
	// Queue is the request queue the loop consumes. Required.
	Queue *Queue

	// Dispatcher maps commands to handlers. Required; normally a
	// *Dispatcher.
	Dispatcher RequestDispatcher

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Setup runs on the loop thread before the first request is
	// received. An error aborts Start: the queue is shut down and
	// waiting requests are abandoned.
	Setup func() error

	// Teardown runs on the loop thread after the last task finishes.
	Teardown func()
}

// RequestDispatcher is what the Loop needs from a Dispatcher. Dispatch
// is called on the loop thread in queue order and must hand any
// long-running work to spawn instead of running it inline.
type RequestDispatcher interface {
	Dispatch(ctx context.Context, thread Thread, request Request, spawn func(task func()))
}

// call is one closure submitted through Do.
type call struct {
	fn     func() error
	result chan error
}

// Loop owns one OS thread. All closures passed to Do execute on that
// thread, one at a time, in arrival order. The loop stops once its
// queue is closed and every dispatched task has returned.
type Loop struct {
	queue      *Queue
	dispatcher RequestDispatcher
	logger     *slog.Logger
	setup      func() error
	teardown   func()

	state    atomic.Int32
	threadID atomic.Int64

	// ctx is handed to handlers. It is never cancelled: callers cannot
	// cancel a handler they have already submitted.
	ctx context.Context

	calls    chan call
	finished chan struct{}
	done     chan struct{}
	started  atomic.Bool

	// tasks counts spawned handlers that have not returned. It is
	// only touched on the loop thread.
	tasks int
}

// NewLoop creates a loop. Call Start to lock its thread and begin
// receiving.
func NewLoop(config LoopConfig) *Loop {
	if config.Queue == nil {
		panic("bridge.Loop: Queue is required")
	}
	if config.Dispatcher == nil {
		panic("bridge.Loop: Dispatcher is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		queue:      config.Queue,
		dispatcher: config.Dispatcher,
		logger:     logger,
		setup:      config.Setup,
		teardown:   config.Teardown,
		ctx:        context.Background(),
		calls:      make(chan call),
		finished:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the loop thread and returns once it is running. A
// Setup failure is returned here; the loop is then already stopped.
// Start may be called once.
func (l *Loop) Start() error {
	if !l.started.CompareAndSwap(false, true) {
		return fmt.Errorf("bridge: loop already started")
	}
	startup := make(chan error, 1)
	go l.run(startup)
	return <-startup
}

// State returns the current lifecycle state.
func (l *Loop) State() LoopState {
	return LoopState(l.state.Load())
}

// ThreadID returns the kernel thread id the loop is locked to, or 0
// before Start.
func (l *Loop) ThreadID() int {
	return int(l.threadID.Load())
}

// Done is closed when the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the loop stops or ctx is done.
func (l *Loop) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the loop thread and returns its error. It must not be
// called from the loop thread itself (that is, from inside another
// Do closure, Setup or Teardown): the loop would wait on itself.
//
// If ctx ends before fn is scheduled, fn does not run. Once scheduled,
// fn runs to completion and Do waits for it. A panic in fn is returned
// as an error.
//
// The loop dispatches nothing while fn runs. fn should send subsystem
// requests and return; waiting for their replies belongs after Do.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	c := call{fn: fn, result: make(chan error, 1)}
	select {
	case l.calls <- c:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-c.result
}

func (l *Loop) setState(state LoopState) {
	l.state.Store(int32(state))
	l.logger.Info("worker loop state changed", "state", state.String(), "thread_id", l.ThreadID())
}

// run is the loop thread's body. The goroutine never unlocks its
// thread, so the runtime terminates the thread when run returns and
// nothing created on it outlives the loop.
func (l *Loop) run(startup chan<- error) {
	runtime.LockOSThread()
	l.threadID.Store(int64(unix.Gettid()))
	l.setState(LoopStarting)

	if l.setup != nil {
		if err := l.invoke(l.setup); err != nil {
			l.queue.Shutdown()
			l.setState(LoopStopped)
			close(l.done)
			startup <- fmt.Errorf("bridge: worker loop setup: %w", err)
			return
		}
	}

	l.setState(LoopRunning)
	startup <- nil

	ready := l.queue.Ready()
	for {
		if ready == nil && l.tasks == 0 {
			break
		}
		select {
		case <-ready:
			l.receiveAll()
			if l.queue.Drained() {
				ready = nil
				l.setState(LoopDraining)
			}
		case c := <-l.calls:
			c.result <- l.invoke(c.fn)
		case <-l.finished:
			l.tasks--
		}
	}

	if l.teardown != nil {
		l.invoke(func() error {
			l.teardown()
			return nil
		})
	}
	l.setState(LoopStopped)
	close(l.done)
}

// receiveAll dispatches every request currently queued.
func (l *Loop) receiveAll() {
	for {
		request, ok := l.queue.TryReceive()
		if !ok {
			return
		}
		l.dispatcher.Dispatch(l.ctx, l, request, l.spawn)
	}
}

// spawn starts task as a tracked goroutine. Called on the loop thread.
func (l *Loop) spawn(task func()) {
	l.tasks++
	go func() {
		defer func() { l.finished <- struct{}{} }()
		task()
	}()
}

// invoke runs fn on the current (loop) thread, converting a panic to
// an error so that one bad closure cannot kill the loop.
func (l *Loop) invoke(fn func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			l.logger.Error("panic on worker loop thread", "panic", fmt.Sprint(recovered))
			err = fmt.Errorf("bridge: panic on worker loop thread: %v", recovered)
		}
	}()
	return fn()
}
