// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bureau-foundation/netbridge/bridge"
	"github.com/bureau-foundation/netbridge/lib/netutil"
)

// Submitter sends one command to the worker loop and waits for its
// response. *bridge.Sender implements it.
type Submitter interface {
	Submit(ctx context.Context, command bridge.Command) (bridge.Response, error)
}

// HandlerConfig configures the HTTP handler.
type HandlerConfig struct {
	// Submitter executes commands. Required.
	Submitter Submitter

	// LoopState reports the worker loop state for /health. Optional.
	LoopState func() bridge.LoopState

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handler serves the netbridge HTTP routes.
type Handler struct {
	submitter Submitter
	loopState func() bridge.LoopState
	logger    *slog.Logger
	mux       *http.ServeMux
}

// route is one command endpoint.
type route struct {
	kind        bridge.Kind
	description string
}

// routes lists the command endpoints in usage order. Each is served at
// "/" + kind.
var routes = []route{
	{bridge.KindCheckConnectivity, "report NetworkManager's connectivity state"},
	{bridge.KindListConnections, "list saved connection profiles"},
	{bridge.KindListWiFiNetworks, "scan for and list visible Wi-Fi networks"},
}

// errorsBody is the JSON body of every failed command.
type errorsBody struct {
	Errors []string `json:"errors"`
}

// NewHandler builds the route table.
func NewHandler(config HandlerConfig) *Handler {
	if config.Submitter == nil {
		panic("api.Handler: Submitter is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		submitter: config.Submitter,
		loopState: config.LoopState,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /{$}", h.HandleUsage)
	h.mux.HandleFunc("GET /health", h.HandleHealth)
	for _, r := range routes {
		h.mux.HandleFunc("GET /"+string(r.kind), h.commandHandler(r.kind))
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// HandleUsage lists the available routes as plain text.
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, Usage())
}

// Usage returns the route listing served at "/".
func Usage() string {
	var builder strings.Builder
	builder.WriteString("netbridge: NetworkManager over HTTP\n\nRoutes:\n")
	for _, r := range routes {
		fmt.Fprintf(&builder, "  GET /%-22s %s\n", string(r.kind), r.description)
	}
	fmt.Fprintf(&builder, "  GET /%-22s %s\n", "health", "report daemon and worker loop status")
	return builder.String()
}

// HandleHealth reports that the daemon is serving and the worker
// loop's lifecycle state.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if h.loopState != nil {
		body["loop"] = h.loopState().String()
	}
	h.writeJSON(w, http.StatusOK, body)
}

// commandHandler submits kind and renders its response.
func (h *Handler) commandHandler(kind bridge.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		command, err := bridge.NewCommand(kind)
		if err != nil {
			h.sendErrors(w, kind, err)
			return
		}
		response, err := h.submitter.Submit(r.Context(), command)
		if err != nil {
			h.sendErrors(w, kind, err)
			return
		}
		h.writeJSON(w, http.StatusOK, responseBody(response))
	}
}

// responseBody is the JSON value for a successful response. Wi-Fi
// networks render as a bare array of SSIDs.
func responseBody(response bridge.Response) any {
	if networks, ok := response.(bridge.WiFiNetworksResponse); ok {
		if networks.SSIDs == nil {
			return []string{}
		}
		return networks.SSIDs
	}
	if connections, ok := response.(bridge.ConnectionsResponse); ok && connections.Connections == nil {
		return bridge.ConnectionsResponse{Connections: []bridge.Connection{}}
	}
	return response
}

// sendErrors renders err's cause chain with status 500.
func (h *Handler) sendErrors(w http.ResponseWriter, kind bridge.Kind, err error) {
	causes := bridge.Chain(err)
	h.logger.Warn("command failed",
		"command", string(kind),
		"errors", causes,
		"bridge_failure", bridge.IsBridgeFailure(err),
	)
	h.writeJSON(w, http.StatusInternalServerError, errorsBody{Errors: causes})
}

// writeJSON encodes value as JSON into w with the given status. A
// client that hung up first, common after a long Wi-Fi scan, is logged
// at debug; other write failures are warnings.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		if netutil.IsExpectedCloseError(err) {
			h.logger.Debug("client went away before the response was written", "error", err, "status", status)
			return
		}
		h.logger.Warn("writing JSON response", "error", err, "status", status)
	}
}
