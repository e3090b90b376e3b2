// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the listener scaffolding shared by the
// netbridge daemon's front ends:
//
//   - Socket server: CBOR request-response protocol on a Unix socket,
//     one request per connection, with action dispatch, connection
//     timeouts, and graceful shutdown.
//   - Socket client: the matching one-shot caller used by netbridgectl.
//   - HTTP server: TCP listener lifecycle around a caller-provided
//     http.Handler, with the same Serve(ctx) shutdown contract as the
//     socket server.
//
// The daemon composes these in its own main() rather than through a
// framework. The package provides building blocks, not a runtime.
//
// # Authentication
//
// Neither listener authenticates callers. The socket is protected by
// its file mode and directory permissions; the HTTP listener should
// be bound to a trusted interface.
package service
