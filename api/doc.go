// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package api maps netbridge commands onto its two front ends: HTTP
// routes rendered as JSON, and actions on the CBOR control socket.
//
// Both front ends submit through the same [Submitter] (normally a
// cloned *bridge.Sender) and render failures as the error's cause
// chain, outermost context first.
package api
