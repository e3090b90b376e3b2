// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestConnectivityColor(t *testing.T) {
	tests := []struct {
		state string
		want  lipgloss.Color
	}{
		{"full", DefaultTheme.ConnectivityFull},
		{"limited", DefaultTheme.ConnectivityLimited},
		{"portal", DefaultTheme.ConnectivityPortal},
		{"none", DefaultTheme.ConnectivityNone},
		{"unknown", DefaultTheme.FaintText},
		{"", DefaultTheme.FaintText},
	}
	for _, test := range tests {
		if got := DefaultTheme.ConnectivityColor(test.state); got != test.want {
			t.Errorf("ConnectivityColor(%q) = %q, want %q", test.state, got, test.want)
		}
	}
}

func TestStylesPlainOutput(t *testing.T) {
	var buffer bytes.Buffer
	styles := NewStyles(DefaultTheme, lipgloss.NewRenderer(&buffer))
	// A buffer is not a terminal, so no escape sequences are added.
	for _, style := range []lipgloss.Style{styles.Header, styles.Normal, styles.Faint, styles.Error, styles.Connectivity("full")} {
		rendered := style.Render("portal")
		if rendered != "portal" {
			t.Errorf("Render = %q, want plain text", rendered)
		}
	}
}

func TestNewRenderer(t *testing.T) {
	var buffer bytes.Buffer

	always, err := NewRenderer(&buffer, ColorAlways)
	if err != nil {
		t.Fatalf("NewRenderer(always): %v", err)
	}
	colored := NewStyles(DefaultTheme, always).Connectivity("full").Render("full")
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("always: %q has no escape sequence", colored)
	}
	if stripped := ansi.Strip(colored); stripped != "full" {
		t.Errorf("always: stripped = %q, want full", stripped)
	}

	never, err := NewRenderer(&buffer, ColorNever)
	if err != nil {
		t.Fatalf("NewRenderer(never): %v", err)
	}
	if plain := NewStyles(DefaultTheme, never).Error.Render("error:"); plain != "error:" {
		t.Errorf("never: %q, want plain text", plain)
	}

	if _, err := NewRenderer(&buffer, "sometimes"); err == nil {
		t.Error("expected error for unknown color mode")
	}
}
