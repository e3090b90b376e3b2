// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Defaults for HTTPServerConfig.
const (
	defaultShutdownTimeout     = 10 * time.Second
	defaultHTTPResponseTimeout = 60 * time.Second

	// Requests carry no body, so header and body reads are short.
	readHeaderTimeout  = 10 * time.Second
	requestReadTimeout = 30 * time.Second
	idleTimeout        = 60 * time.Second
)

// HTTPServer serves an http.Handler on a TCP listener with the same
// Serve(ctx) lifecycle as SocketServer: Serve returns once ctx is
// cancelled and in-flight requests have drained.
type HTTPServer struct {
	address         string
	handler         http.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration
	responseTimeout time.Duration

	ready chan struct{}
	addr  net.Addr
}

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	// Address is the TCP listen address, e.g. "0.0.0.0:3000". Port 0
	// picks a free port; see Addr. Required.
	Address string

	// Handler serves every request. Required.
	Handler http.Handler

	// ResponseTimeout bounds the time from reading a request's headers
	// to finishing its response. It must cover the slowest handler: a
	// Wi-Fi listing waits out the whole scan poll budget. Defaults to
	// 60 seconds if zero.
	ResponseTimeout time.Duration

	// ShutdownTimeout bounds the wait for in-flight requests once ctx
	// is cancelled. Defaults to 10 seconds if zero.
	ShutdownTimeout time.Duration

	// Logger receives lifecycle messages and net/http's own errors.
	// Required.
	Logger *slog.Logger
}

// NewHTTPServer validates config. Nothing is bound until Serve.
func NewHTTPServer(config HTTPServerConfig) *HTTPServer {
	if config.Address == "" {
		panic("service.HTTPServer: Address is required")
	}
	if config.Handler == nil {
		panic("service.HTTPServer: Handler is required")
	}
	if config.Logger == nil {
		panic("service.HTTPServer: Logger is required")
	}

	return &HTTPServer{
		address:         config.Address,
		handler:         config.Handler,
		logger:          config.Logger,
		shutdownTimeout: orDefault(config.ShutdownTimeout, defaultShutdownTimeout),
		responseTimeout: orDefault(config.ResponseTimeout, defaultHTTPResponseTimeout),
		ready:           make(chan struct{}),
	}
}

func orDefault(value, fallback time.Duration) time.Duration {
	if value == 0 {
		return fallback
	}
	return value
}

// Ready is closed once the listener is bound.
func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, with the kernel-assigned port when
// Address used port 0. Valid after Ready is closed.
func (s *HTTPServer) Addr() net.Addr {
	return s.addr
}

// newServer builds the http.Server. net/http restarts WriteTimeout
// when a request's headers have been read, so it bounds each response.
func (s *HTTPServer) newServer() *http.Server {
	return &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       requestReadTimeout,
		WriteTimeout:      s.responseTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
}

// Serve binds the listener and serves until ctx is cancelled or the
// server fails. On cancellation it stops accepting connections and
// waits up to ShutdownTimeout for in-flight requests.
func (s *HTTPServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := s.newServer()
	s.logger.Info("http server listening",
		"address", s.addr.String(),
		"response_timeout", s.responseTimeout,
	)

	failed := make(chan error, 1)
	go func() {
		err := server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		failed <- err
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
