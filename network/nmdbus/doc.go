// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nmdbus implements network.Connector over NetworkManager's
// D-Bus API on the system bus.
//
// Every Connect opens a private bus connection, so a client and the
// connection under it belong to the thread that created them and are
// released together by Close.
package nmdbus
