// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bureau-foundation/netbridge/lib/codec"
	"github.com/bureau-foundation/netbridge/lib/netutil"
)

// ActionFunc processes a socket request for a specific action. The raw
// parameter is the full CBOR request (including the "action" field).
// The handler decodes action-specific fields from this raw message.
//
// Return a value to include in the success response, or an error for
// a failure response. If the returned value is nil, the response
// contains only {ok: true}. If non-nil, the value is marshaled as
// CBOR and placed in the response's "data" field.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the wire-format envelope for all socket protocol
// responses. Handlers return a result value (or nil) and an error;
// the server wraps these into a Response before encoding.
//
// A failure carries Error, the full message, and Causes, the message
// split into its cause chain (outermost first) when the server was
// given an error renderer.
type Response struct {
	OK     bool             `cbor:"ok"`
	Error  string           `cbor:"error,omitempty"`
	Causes []string         `cbor:"causes,omitempty"`
	Data   codec.RawMessage `cbor:"data,omitempty"`
}

// ErrorRenderer splits a handler error into its cause chain for the
// Causes field of a failure response.
type ErrorRenderer func(error) []string

// SocketServer serves a CBOR request-response protocol on a Unix
// socket. Each connection handles exactly one request-response cycle:
// the client writes a CBOR value, the server processes it and writes
// a CBOR response, then the connection closes.
//
// Actions are registered with Handle before calling Serve. Unknown
// actions receive an error response.
type SocketServer struct {
	socketPath  string
	handlers    map[string]ActionFunc
	logger      *slog.Logger
	renderError ErrorRenderer

	// ready is closed once the socket is listening.
	ready chan struct{}

	// activeConnections tracks in-flight request handlers for graceful
	// shutdown. Serve waits for all active connections to complete
	// before returning.
	activeConnections sync.WaitGroup
}

// NewSocketServer creates a server that will listen on socketPath.
// Register actions with Handle before calling Serve. If renderError is
// nil, failure responses carry no Causes.
func NewSocketServer(socketPath string, logger *slog.Logger, renderError ErrorRenderer) *SocketServer {
	return &SocketServer{
		socketPath:  socketPath,
		handlers:    make(map[string]ActionFunc),
		logger:      logger,
		renderError: renderError,
		ready:       make(chan struct{}),
	}
}

// Ready returns a channel that is closed once the socket is bound.
func (s *SocketServer) Ready() <-chan struct{} {
	return s.ready
}

// Handle registers a handler for the given action name. Panics if
// called after Serve has started or if the action is already
// registered.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve starts accepting connections on the Unix socket and dispatches
// requests to registered action handlers. Blocks until ctx is
// cancelled, then stops accepting new connections and waits for active
// handlers to complete.
//
// Any existing socket file at the configured path is removed before
// listening, and the parent directory is created if missing. The
// socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()
	close(s.ready)

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout is how long we wait for the client to send its request.
// A well-behaved client sends the request immediately after connecting.
const readTimeout = 30 * time.Second

// writeTimeout is how long we wait for the response to be written.
const writeTimeout = 10 * time.Second

// maxRequestSize is the maximum size of a single CBOR request. Requests
// are an action name and a few fields.
const maxRequestSize = 64 * 1024

// handleConnection processes one request-response cycle.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// Decode one CBOR value from the connection. CBOR is self-
	// delimiting so no framing protocol is needed. LimitReader
	// prevents a malicious client from exhausting memory.
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if netutil.IsExpectedCloseError(err) {
			// Client connected but sent nothing.
			return
		}
		s.writeError(conn, fmt.Errorf("invalid request: %w", err))
		return
	}

	// Extract the action field for routing.
	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, fmt.Errorf("invalid request: %w", err))
		return
	}
	if header.Action == "" {
		s.writeError(conn, errors.New("missing required field: action"))
		return
	}

	handler, exists := s.handlers[header.Action]
	if !exists {
		s.writeError(conn, fmt.Errorf("unknown action %q", header.Action))
		return
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("action failed",
			"action", header.Action,
			"error", err,
		)
		s.writeError(conn, err)
		return
	}

	s.writeSuccess(conn, result)
}

// writeError sends a failure response: {ok: false, error: "...",
// causes: [...]}. The connection is closing regardless of whether the
// write succeeds.
func (s *SocketServer) writeError(conn net.Conn, failure error) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	response := Response{
		OK:    false,
		Error: failure.Error(),
	}
	if s.renderError != nil {
		response.Causes = s.renderError(failure)
	}
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logWriteFailure("error", err)
	}
}

// writeSuccess sends a success response. If result is nil, the
// response is {ok: true}. If non-nil, the value is marshaled as CBOR
// and placed in the "data" field: {ok: true, data: <cbor>}.
func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	response := Response{OK: true}

	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Errorf("internal: marshaling response: %w", err))
			return
		}
		response.Data = data
	}

	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logWriteFailure("success", err)
	}
}

// logWriteFailure logs a failed response write. A client that hung up
// first is routine; anything else is a warning.
func (s *SocketServer) logWriteFailure(kind string, err error) {
	if netutil.IsExpectedCloseError(err) {
		s.logger.Debug("client went away before the response was written", "response", kind, "error", err)
		return
	}
	s.logger.Warn("failed to write response", "response", kind, "error", err)
}
