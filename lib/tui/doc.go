// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui holds the terminal styling shared by netbridge's command
// line tools: the color palette and the lipgloss styles derived from
// it.
//
// Styles are bound to a lipgloss renderer for one output, which
// downgrades or drops colors to match that output's color profile:
// the same styles render plain text into pipes and files.
package tui
