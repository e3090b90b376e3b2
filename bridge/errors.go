// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"strings"
)

// ErrBridge matches every failure of the bridge itself, as opposed to
// a failure reported by a command handler:
//
//	if errors.Is(err, bridge.ErrBridge) { ... }
var ErrBridge = errors.New("bridge: internal bridge failure")

var (
	// ErrClosed is returned by Send when the queue no longer accepts
	// requests or the Sender handle has been closed.
	ErrClosed error = &bridgeError{message: "command queue closed"}

	// ErrAbandoned is what a caller sees when the worker side gave up
	// on a request without producing a result.
	ErrAbandoned error = &bridgeError{message: "request abandoned without a response"}

	// ErrStopped is returned by Loop.Do once the loop has stopped.
	ErrStopped error = &bridgeError{message: "worker loop stopped"}
)

var (
	// ErrUnknownCommand is reported for a command with no handler.
	ErrUnknownCommand = errors.New("bridge: unknown command")

	// ErrConsumed is returned by a second Wait on the same Completion.
	ErrConsumed = errors.New("bridge: completion already consumed")
)

type bridgeError struct {
	message string
}

func (e *bridgeError) Error() string { return "bridge: " + e.message }

func (e *bridgeError) Is(target error) bool { return target == ErrBridge }

// IsBridgeFailure reports whether err was caused by the bridge rather
// than by a command handler.
func IsBridgeFailure(err error) bool {
	return errors.Is(err, ErrBridge)
}

// Chain renders err as its ordered list of causes, outermost context
// first and root cause last. Each frame contributes only its own text:
// for an error built with fmt.Errorf("reading state: %w", cause) the
// frame is "reading state" and cause follows as the next frame.
//
// A frame whose cause is not at the end of its text, as with
// fmt.Errorf("%w: %q", ErrUnknownCommand, kind), already reads as a
// whole sentence; it is rendered whole and the walk ends there. Errors
// that wrap more than one error (errors.Join, several %w verbs) also
// end the walk and are rendered whole.
func Chain(err error) []string {
	var frames []string
	for err != nil {
		next := errors.Unwrap(err)
		message := err.Error()
		if next != nil {
			trimmed, found := strings.CutSuffix(message, ": "+next.Error())
			if !found && strings.Contains(message, next.Error()) {
				return append(frames, message)
			}
			message = trimmed
		}
		frames = append(frames, message)
		err = next
	}
	return frames
}
