// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge carries commands from concurrent request goroutines
// to the one OS thread that is allowed to drive the network subsystem,
// and carries exactly one response back to each caller.
//
// The pieces, from the caller's side:
//
//   - [Command] is a closed set of request variants. Each variant
//     reports a [Kind]; each Kind has exactly one [Handler] in the
//     [Dispatcher] table.
//   - [Sender.Submit] pairs the command with a fresh [Responder] /
//     [Completion] pair, enqueues the [Request] on the [Queue] and
//     waits on the Completion.
//   - [Queue] is an unbounded multi-producer, single-consumer FIFO.
//     Sends never block. [Sender] handles are reference counted; the
//     queue closes when the last handle is closed.
//   - [Loop] owns a goroutine locked to a dedicated OS thread. It
//     receives requests, hands each to the Dispatcher and goes back to
//     receiving without waiting for the handler.
//   - The Dispatcher runs each handler as its own task. Handlers never
//     touch the subsystem client directly: they pass closures to
//     [Loop.Do], which runs them on the loop thread. Between closures a
//     task may wait (timers, polling) without holding the thread.
//   - When a handler returns, its result goes through the Responder.
//     If the caller has stopped listening, the result is dropped.
//
// # Ordering
//
// Requests are received in the order they were sent. Completion order
// is not defined: a slow handler does not delay dispatch of the
// requests behind it.
//
// # Failures
//
// A handler failure reaches the caller as the handler's own error
// chain. Failures of the bridge itself ([ErrClosed], [ErrAbandoned],
// [ErrStopped]) all match [ErrBridge] under errors.Is, so callers can
// tell "the operation failed" from "the bridge could not carry the
// request". [Chain] renders any error as its ordered list of causes.
//
// There is no cancellation from caller to handler. A caller that gives
// up abandons its Completion; the handler still runs to completion and
// only the delivery is skipped.
package bridge
