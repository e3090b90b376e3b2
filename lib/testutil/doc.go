// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a short temporary directory for Unix domain
// sockets, whose paths are limited to 108 bytes.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so that tests of the command bridge never hang when a
// response is lost. They are the only place in the test suite where a
// wall-clock timeout is used.
//
// All helpers call t.Fatalf on failure.
package testutil
