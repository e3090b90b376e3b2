// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration for the local control
// socket.
//
// The HTTP surface speaks JSON; the control socket between the daemon
// and netbridgectl speaks CBOR. Response types in package bridge carry
// `json` tags only: fxamacker/cbor falls back to `json` tags when no
// `cbor` tag is present, so one tag names the field in both formats.
// Socket envelope types that never reach JSON use `cbor` tags.
//
//	data, err := codec.Marshal(value)
//	encoder := codec.NewEncoder(conn)
package codec
