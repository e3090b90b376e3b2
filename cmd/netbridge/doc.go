// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// netbridge serves NetworkManager queries over HTTP and a local CBOR
// control socket.
//
// All NetworkManager calls run on one dedicated OS thread owned by the
// bridge worker loop. The HTTP handler and the socket actions each
// hold a cloned send handle to the loop's command queue; on SIGINT or
// SIGTERM both listeners stop, their handles are closed, and the loop
// drains in-flight commands before the process exits.
//
// Usage:
//
//	netbridge [--config path] [--listen addr] [--socket path] [--log-level level]
package main
