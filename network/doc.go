// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package network implements the netbridge command handlers on top of
// an abstract NetworkManager client.
//
// The client is thread-affine: every call on a Client, and on any
// Device obtained from it, happens inside a bridge.Thread Do closure.
// Handlers hold the handles between closures but never call them
// outside one. Requests only send inside the closure; the handler
// waits for the reply through a Pending after the closure returns, so
// one slow NetworkManager call never stops the loop from dispatching
// other commands. Each request creates its own client and closes it
// before returning, so no client state survives between requests.
//
// The concrete D-Bus implementation lives in network/nmdbus. Tests
// use in-memory fakes of the interfaces in this package.
package network
