// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/netbridge/bridge"
	"github.com/bureau-foundation/netbridge/lib/service"
)

// HealthAction is the socket action reporting the worker loop state.
const HealthAction = "health"

// Health is the data of a successful health action.
type Health struct {
	Status string `json:"status"`
	Loop   string `json:"loop,omitempty"`
}

// NewSocketServer returns a socket server whose failure responses
// carry the cause chain of the error.
func NewSocketServer(config HandlerConfig, socketPath string) *service.SocketServer {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	server := service.NewSocketServer(socketPath, logger, bridge.Chain)
	RegisterActions(server, config)
	return server
}

// RegisterActions registers one action per command kind, named after
// the kind, plus HealthAction. The action data is the command's
// response.
func RegisterActions(server *service.SocketServer, config HandlerConfig) {
	if config.Submitter == nil {
		panic("api.RegisterActions: Submitter is required")
	}
	for _, kind := range bridge.Kinds() {
		server.Handle(string(kind), func(ctx context.Context, raw []byte) (any, error) {
			command, err := bridge.NewCommand(kind)
			if err != nil {
				return nil, err
			}
			return config.Submitter.Submit(ctx, command)
		})
	}
	server.Handle(HealthAction, func(ctx context.Context, raw []byte) (any, error) {
		health := Health{Status: "ok"}
		if config.LoopState != nil {
			health.Loop = config.LoopState().String()
		}
		return health, nil
	})
}
