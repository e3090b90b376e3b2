// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/netbridge/api"
	"github.com/bureau-foundation/netbridge/bridge"
	"github.com/bureau-foundation/netbridge/lib/service"
	"github.com/bureau-foundation/netbridge/lib/tui"
)

// renderer writes daemon responses either as styled text or as JSON in
// the same shapes the HTTP routes return.
type renderer struct {
	w          io.Writer
	jsonOutput bool
	styles     tui.Styles
}

func newRenderer(w io.Writer, jsonOutput bool, colorMode string) (*renderer, error) {
	output, err := tui.NewRenderer(w, colorMode)
	if err != nil {
		return nil, err
	}
	return &renderer{
		w:          w,
		jsonOutput: jsonOutput,
		styles:     tui.NewStyles(tui.DefaultTheme, output),
	}, nil
}

func (r *renderer) connectivity(response bridge.ConnectivityResponse) error {
	if r.jsonOutput {
		return r.writeJSON(response)
	}
	_, err := fmt.Fprintf(r.w, "%s %s\n",
		r.styles.Header.Render("Connectivity:"),
		r.styles.Connectivity(response.Connectivity).Render(response.Connectivity))
	return err
}

func (r *renderer) connections(response bridge.ConnectionsResponse) error {
	if response.Connections == nil {
		response.Connections = []bridge.Connection{}
	}
	if r.jsonOutput {
		return r.writeJSON(response)
	}
	if len(response.Connections) == 0 {
		_, err := fmt.Fprintln(r.w, r.styles.Faint.Render("no saved connections"))
		return err
	}

	width := len("NAME")
	for _, connection := range response.Connections {
		width = max(width, ansi.StringWidth(connection.ID))
	}
	fmt.Fprintf(r.w, "%s  %s\n",
		r.styles.Header.Render(pad("NAME", width)),
		r.styles.Header.Render("UUID"))
	for _, connection := range response.Connections {
		if _, err := fmt.Fprintf(r.w, "%s  %s\n",
			r.styles.Normal.Render(pad(connection.ID, width)),
			r.styles.Faint.Render(connection.UUID)); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) wifi(response bridge.WiFiNetworksResponse) error {
	ssids := response.SSIDs
	if ssids == nil {
		ssids = []string{}
	}
	if r.jsonOutput {
		return r.writeJSON(ssids)
	}
	if len(ssids) == 0 {
		_, err := fmt.Fprintln(r.w, r.styles.Faint.Render("no Wi-Fi networks in range"))
		return err
	}
	for _, ssid := range ssids {
		if _, err := fmt.Fprintln(r.w, r.styles.Normal.Render(ssid)); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) health(health api.Health) error {
	if r.jsonOutput {
		return r.writeJSON(health)
	}
	line := r.styles.Header.Render("Status:") + " " + r.styles.Normal.Render(health.Status)
	if health.Loop != "" {
		line += " " + r.styles.Faint.Render("(loop "+health.Loop+")")
	}
	_, err := fmt.Fprintln(r.w, line)
	return err
}

// failure prints a daemon-side failure and its cause chain, outermost
// first.
func (r *renderer) failure(serviceErr *service.ServiceError) {
	causes := serviceErr.Causes
	if len(causes) == 0 {
		causes = []string{serviceErr.Message}
	}
	fmt.Fprintf(r.w, "%s %s\n", r.styles.Error.Render("error:"), causes[0])
	for _, cause := range causes[1:] {
		fmt.Fprintf(r.w, "  %s %s\n", r.styles.Faint.Render("caused by:"), cause)
	}
}

func (r *renderer) writeJSON(value any) error {
	encoder := json.NewEncoder(r.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// pad right-pads s with spaces to width display cells.
func pad(s string, width int) string {
	for gap := width - ansi.StringWidth(s); gap > 0; gap-- {
		s += " "
	}
	return s
}
