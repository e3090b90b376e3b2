// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Thread runs closures on the thread that owns the subsystem client.
// *Loop implements it. Code that touches the client handle does so
// only inside fn.
type Thread interface {
	Do(ctx context.Context, fn func() error) error
}

// Handler executes one command. It runs as its own task, not on the
// loop thread, and reaches the subsystem only through thread.Do.
type Handler func(ctx context.Context, thread Thread, command Command) (Response, error)

// HandlerTable maps every Kind to its handler.
type HandlerTable map[Kind]Handler

// errNoResponse is reported when a handler returns neither a response
// nor an error.
var errNoResponse = errors.New("bridge: handler returned no response")

// Dispatcher selects a command's handler and runs it as an independent
// task that delivers its result through the request's Responder.
type Dispatcher struct {
	handlers HandlerTable
	logger   *slog.Logger
}

// NewDispatcher validates table against Kinds: every kind needs a
// non-nil handler and the table may not name unknown kinds.
func NewDispatcher(table HandlerTable, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	known := make(map[Kind]bool, len(table))
	for _, kind := range Kinds() {
		known[kind] = true
		if table[kind] == nil {
			return nil, fmt.Errorf("bridge: no handler for command %q", string(kind))
		}
	}
	handlers := make(HandlerTable, len(table))
	for kind, handler := range table {
		if !known[kind] {
			return nil, fmt.Errorf("bridge: handler table names unknown command %q", string(kind))
		}
		handlers[kind] = handler
	}

	return &Dispatcher{handlers: handlers, logger: logger}, nil
}

// Dispatch hands request's handler to spawn, wrapped so that its
// result is delivered through request.Responder, and returns without
// waiting for it. A request with no handler is answered immediately
// with ErrUnknownCommand.
func (d *Dispatcher) Dispatch(ctx context.Context, thread Thread, request Request, spawn func(task func())) {
	if request.Command == nil {
		request.Responder.Send(nil, fmt.Errorf("%w: nil command", ErrUnknownCommand))
		return
	}
	kind := request.Command.Kind()
	handler, exists := d.handlers[kind]
	if !exists {
		request.Responder.Send(nil, fmt.Errorf("%w: %q", ErrUnknownCommand, string(kind)))
		return
	}

	d.logger.Debug("dispatching command", "command", string(kind))
	spawn(func() {
		d.executeAndRespond(ctx, thread, handler, request)
	})
}

// executeAndRespond runs handler and delivers its outcome. A caller
// that stopped listening is not an error. A panicking handler abandons
// the request instead of taking the loop down.
func (d *Dispatcher) executeAndRespond(ctx context.Context, thread Thread, handler Handler, request Request) {
	kind := string(request.Command.Kind())
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("command handler panicked",
				"command", kind,
				"panic", fmt.Sprint(recovered),
				"stack", string(debug.Stack()),
			)
			request.Responder.Abandon()
		}
	}()

	response, err := handler(ctx, thread, request.Command)
	if response == nil && err == nil {
		err = errNoResponse
	}
	if !request.Responder.Send(response, err) {
		d.logger.Debug("response discarded, caller no longer waiting", "command", kind)
	}
}
