// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines the color palette for netbridge's terminal output. All
// colors use lipgloss ANSI 256-color codes for broad terminal
// compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Headings and labels.
	HeaderForeground lipgloss.Color

	// Failures and their causes.
	ErrorForeground lipgloss.Color

	// Connectivity state colors.
	ConnectivityFull    lipgloss.Color
	ConnectivityLimited lipgloss.Color
	ConnectivityPortal  lipgloss.Color
	ConnectivityNone    lipgloss.Color
}

// ConnectivityColor returns the color for a NetworkManager
// connectivity state as rendered by the daemon ("full", "limited",
// "portal", "none"). Unknown states return FaintText.
func (theme Theme) ConnectivityColor(state string) lipgloss.Color {
	switch state {
	case "full":
		return theme.ConnectivityFull
	case "limited":
		return theme.ConnectivityLimited
	case "portal":
		return theme.ConnectivityPortal
	case "none":
		return theme.ConnectivityNone
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	HeaderForeground: lipgloss.Color("255"),
	ErrorForeground:  lipgloss.Color("196"), // bright red

	ConnectivityFull:    lipgloss.Color("114"), // green
	ConnectivityLimited: lipgloss.Color("220"), // yellow/amber
	ConnectivityPortal:  lipgloss.Color("141"), // light purple
	ConnectivityNone:    lipgloss.Color("196"), // red
}

// Styles are the lipgloss styles built from a Theme for one output.
type Styles struct {
	theme    Theme
	renderer *lipgloss.Renderer

	Header lipgloss.Style
	Normal lipgloss.Style
	Faint  lipgloss.Style
	Error  lipgloss.Style
}

// NewStyles builds styles from theme for the output behind renderer.
// Colors are dropped when that output is not a terminal.
func NewStyles(theme Theme, renderer *lipgloss.Renderer) Styles {
	return Styles{
		theme:    theme,
		renderer: renderer,
		Header:   renderer.NewStyle().Bold(true).Foreground(theme.HeaderForeground),
		Normal:   renderer.NewStyle().Foreground(theme.NormalText),
		Faint:    renderer.NewStyle().Foreground(theme.FaintText),
		Error:    renderer.NewStyle().Bold(true).Foreground(theme.ErrorForeground),
	}
}

// Connectivity returns the style for a connectivity state.
func (styles Styles) Connectivity(state string) lipgloss.Style {
	return styles.renderer.NewStyle().Bold(true).Foreground(styles.theme.ConnectivityColor(state))
}

// Color modes accepted by NewRenderer.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// NewRenderer returns a lipgloss renderer for w. ColorAuto detects the
// color profile from w and the environment; ColorAlways forces 256
// colors; ColorNever forces plain text.
func NewRenderer(w io.Writer, mode string) (*lipgloss.Renderer, error) {
	renderer := lipgloss.NewRenderer(w)
	switch mode {
	case ColorAuto, "":
	case ColorAlways:
		renderer.SetColorProfile(termenv.ANSI256)
	case ColorNever:
		renderer.SetColorProfile(termenv.Ascii)
	default:
		return nil, fmt.Errorf("invalid color mode %q (want %s, %s or %s)", mode, ColorAuto, ColorAlways, ColorNever)
	}
	return renderer, nil
}
