// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package network

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/netbridge/bridge"
	"github.com/bureau-foundation/netbridge/lib/clock"
)

// Config configures the network command handlers.
type Config struct {
	// Connector opens a client per request. Required.
	Connector Connector

	// Clock drives the scan poller. Defaults to clock.Real().
	Clock clock.Clock

	// Scan bounds the Wi-Fi scan wait. The zero value means
	// DefaultScanPolicy().
	Scan ScanPolicy

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handlers executes netbridge commands against a NetworkManager
// client.
type Handlers struct {
	connector Connector
	clock     clock.Clock
	scan      ScanPolicy
	logger    *slog.Logger
}

// New validates config and returns the handlers.
func New(config Config) (*Handlers, error) {
	if config.Connector == nil {
		return nil, fmt.Errorf("network: Connector is required")
	}
	scan := config.Scan
	if scan == (ScanPolicy{}) {
		scan = DefaultScanPolicy()
	}
	if err := scan.Validate(); err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		connector: config.Connector,
		clock:     clk,
		scan:      scan,
		logger:    logger,
	}, nil
}

// Table returns the handler for every bridge command kind.
func (h *Handlers) Table() bridge.HandlerTable {
	return bridge.HandlerTable{
		bridge.KindCheckConnectivity: h.checkConnectivity,
		bridge.KindListConnections:   h.listConnections,
		bridge.KindListWiFiNetworks:  h.listWiFiNetworks,
	}
}

func (h *Handlers) checkConnectivity(ctx context.Context, thread bridge.Thread, _ bridge.Command) (bridge.Response, error) {
	s, err := h.open(ctx, thread)
	if err != nil {
		return nil, err
	}
	defer s.close(ctx)

	state, err := request(ctx, s, Client.CheckConnectivity)
	if err != nil {
		return nil, fmt.Errorf("checking connectivity: %w", err)
	}
	return bridge.ConnectivityResponse{Connectivity: state.String()}, nil
}

func (h *Handlers) listConnections(ctx context.Context, thread bridge.Thread, _ bridge.Command) (bridge.Response, error) {
	s, err := h.open(ctx, thread)
	if err != nil {
		return nil, err
	}
	defer s.close(ctx)

	profiles, err := h.readProfiles(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("reading connection profiles: %w", err)
	}

	connections := make([]bridge.Connection, 0, len(profiles))
	for _, profile := range profiles {
		if profile.ID == "" || profile.UUID == "" {
			continue
		}
		connections = append(connections, bridge.Connection{ID: profile.ID, UUID: profile.UUID})
	}
	return bridge.ConnectionsResponse{Connections: connections}, nil
}

// readProfiles lists the saved profiles and reads their settings, all
// settings requests in flight together.
func (h *Handlers) readProfiles(ctx context.Context, s *session) ([]Connection, error) {
	paths, err := request(ctx, s, Client.ListConnections)
	if err != nil {
		return nil, err
	}
	pending, err := requestEach(ctx, s, paths, Client.ConnectionSettings)
	if err != nil {
		return nil, err
	}
	profiles := make([]Connection, 0, len(pending))
	for _, settings := range pending {
		profile, err := settings.Wait(ctx)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (h *Handlers) listWiFiNetworks(ctx context.Context, thread bridge.Thread, _ bridge.Command) (bridge.Response, error) {
	s, err := h.open(ctx, thread)
	if err != nil {
		return nil, err
	}
	defer s.close(ctx)

	device, err := findWirelessDevice(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("finding wireless device: %w", err)
	}

	ssids, err := h.scanNetworks(ctx, s, device)
	if err != nil {
		return nil, err
	}
	return bridge.WiFiNetworksResponse{SSIDs: ssids}, nil
}

// findWirelessDevice returns the first Wi-Fi device in NetworkManager's
// device order.
func findWirelessDevice(ctx context.Context, s *session) (Device, error) {
	paths, err := request(ctx, s, Client.ListDevices)
	if err != nil {
		return nil, err
	}
	pending, err := requestEach(ctx, s, paths, Client.IsWireless)
	if err != nil {
		return nil, err
	}
	for i, isWireless := range pending {
		wireless, err := isWireless.Wait(ctx)
		if err != nil {
			return nil, err
		}
		if !wireless {
			continue
		}
		var device Device
		err = s.do(ctx, func(client Client) error {
			device = client.Wireless(paths[i])
			return nil
		})
		if err != nil {
			return nil, err
		}
		return device, nil
	}
	return nil, ErrNoWirelessDevice
}

// session is one request's client. The client is only reached
// through do, which runs on the loop thread.
type session struct {
	thread bridge.Thread
	client Client
	logger *slog.Logger
}

// open connects a client on the loop thread.
func (h *Handlers) open(ctx context.Context, thread bridge.Thread) (*session, error) {
	var client Client
	err := thread.Do(ctx, func() error {
		var err error
		client, err = h.connector.Connect()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating NetworkManager client: %w", err)
	}
	return &session{thread: thread, client: client, logger: h.logger}, nil
}

func (s *session) do(ctx context.Context, fn func(Client) error) error {
	return s.thread.Do(ctx, func() error {
		return fn(s.client)
	})
}

// request sends one request on the loop thread and waits for the
// reply off it, so the loop keeps dispatching while NetworkManager
// works.
func request[T any](ctx context.Context, s *session, send func(Client) *Pending[T]) (T, error) {
	var pending *Pending[T]
	err := s.do(ctx, func(client Client) error {
		pending = send(client)
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return pending.Wait(ctx)
}

// requestEach sends one request per path in a single visit to the loop
// thread. The results are in path order.
func requestEach[T any](ctx context.Context, s *session, paths []ObjectPath, send func(Client, ObjectPath) *Pending[T]) ([]*Pending[T], error) {
	pending := make([]*Pending[T], len(paths))
	err := s.do(ctx, func(client Client) error {
		for i, path := range paths {
			pending[i] = send(client, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// close releases the client. A close failure does not change the
// request's outcome.
func (s *session) close(ctx context.Context) {
	if err := s.do(ctx, func(client Client) error { return client.Close() }); err != nil {
		s.logger.Warn("closing NetworkManager client", "error", err)
	}
}
