// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/netbridge/lib/clock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// fakeThread runs Do closures one at a time on the calling goroutine
// and tracks whether a closure is executing.
type fakeThread struct {
	mu     sync.Mutex
	inside atomic.Bool
	calls  atomic.Int32
}

func (f *fakeThread) Do(_ context.Context, fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inside.Store(true)
	defer f.inside.Store(false)
	f.calls.Add(1)
	return fn()
}

const (
	profilePrefix     = "/org/freedesktop/NetworkManager/Settings/"
	wiredDevice       = ObjectPath("/org/freedesktop/NetworkManager/Devices/1")
	wirelessDevice    = ObjectPath("/org/freedesktop/NetworkManager/Devices/2")
	accessPointPrefix = "/org/freedesktop/NetworkManager/AccessPoint/"
)

// indexOf returns the numeric suffix of a fake object path.
func indexOf(path ObjectPath, prefix string) int {
	index, err := strconv.Atoi(strings.TrimPrefix(string(path), prefix))
	if err != nil {
		panic(fmt.Sprintf("fake object path %q", path))
	}
	return index
}

// fakeConnector hands out one fakeClient per Connect. With a nil
// thread, no thread checks are made.
type fakeConnector struct {
	thread *fakeThread
	err    error

	connectivity Connectivity
	// connectivityGate, when set, holds the CheckConnectivity reply
	// until it is closed. connectivitySent is closed when the request
	// has been sent.
	connectivityGate chan struct{}
	connectivitySent chan struct{}
	sentOnce         sync.Once

	connections    []Connection
	connectionsErr error
	settingsErr    error
	device         *fakeDevice
	closeErr       error

	mu      sync.Mutex
	clients []*fakeClient
	// offThread counts client or device calls made outside a Do
	// closure.
	offThread atomic.Int32
}

func (c *fakeConnector) Connect() (Client, error) {
	c.checkThread()
	if c.err != nil {
		return nil, c.err
	}
	client := &fakeClient{connector: c}
	c.mu.Lock()
	c.clients = append(c.clients, client)
	c.mu.Unlock()
	return client, nil
}

func (c *fakeConnector) checkThread() {
	if c.thread != nil && !c.thread.inside.Load() {
		c.offThread.Add(1)
	}
}

// allClosed reports whether every client handed out was closed.
func (c *fakeConnector) allClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, client := range c.clients {
		if !client.closed.Load() {
			return false
		}
	}
	return true
}

type fakeClient struct {
	connector *fakeConnector
	closed    atomic.Bool
}

func (c *fakeClient) CheckConnectivity() *Pending[Connectivity] {
	connector := c.connector
	connector.checkThread()
	if connector.connectivitySent != nil {
		connector.sentOnce.Do(func() { close(connector.connectivitySent) })
	}
	if connector.connectivityGate == nil {
		return Resolved(connector.connectivity, nil)
	}
	pending := NewPending[Connectivity]()
	go func() {
		<-connector.connectivityGate
		pending.Resolve(connector.connectivity, nil)
	}()
	return pending
}

func (c *fakeClient) ListConnections() *Pending[[]ObjectPath] {
	c.connector.checkThread()
	if c.connector.connectionsErr != nil {
		return Resolved[[]ObjectPath](nil, c.connector.connectionsErr)
	}
	paths := make([]ObjectPath, len(c.connector.connections))
	for i := range paths {
		paths[i] = ObjectPath(profilePrefix + strconv.Itoa(i))
	}
	return Resolved(paths, nil)
}

func (c *fakeClient) ConnectionSettings(profile ObjectPath) *Pending[Connection] {
	c.connector.checkThread()
	if c.connector.settingsErr != nil {
		return Resolved(Connection{}, c.connector.settingsErr)
	}
	return Resolved(c.connector.connections[indexOf(profile, profilePrefix)], nil)
}

func (c *fakeClient) ListDevices() *Pending[[]ObjectPath] {
	c.connector.checkThread()
	paths := []ObjectPath{wiredDevice}
	if c.connector.device != nil {
		paths = append(paths, wirelessDevice)
	}
	return Resolved(paths, nil)
}

func (c *fakeClient) IsWireless(device ObjectPath) *Pending[bool] {
	c.connector.checkThread()
	return Resolved(device == wirelessDevice, nil)
}

func (c *fakeClient) Wireless(device ObjectPath) Device {
	c.connector.checkThread()
	if device != wirelessDevice {
		panic(fmt.Sprintf("Wireless(%q) on a wired device", device))
	}
	return c.connector.device
}

func (c *fakeClient) Close() error {
	c.connector.checkThread()
	c.closed.Store(true)
	return c.connector.closeErr
}

// fakePoint is one access point a fakeDevice reports. A gone point
// vanishes before its SSID can be read.
type fakePoint struct {
	ssid string
	gone bool
}

// fakeDevice reports a completed scan from the completeOn-th check
// onward. A completeOn of zero never completes.
type fakeDevice struct {
	connector  *fakeConnector
	clock      clock.Clock
	completeOn int
	scanErr    error
	points     []fakePoint

	scanRequested atomic.Bool
	checks        atomic.Int32
}

func (d *fakeDevice) RequestScan() *Pending[struct{}] {
	d.connector.checkThread()
	if d.scanErr != nil {
		return Resolved(struct{}{}, d.scanErr)
	}
	d.scanRequested.Store(true)
	return Resolved(struct{}{}, nil)
}

func (d *fakeDevice) LastScan() *Pending[time.Time] {
	d.connector.checkThread()
	check := int(d.checks.Add(1))
	if d.completeOn > 0 && check >= d.completeOn {
		return Resolved(d.clock.Now(), nil)
	}
	return Resolved(time.Time{}, nil)
}

func (d *fakeDevice) ListAccessPoints() *Pending[[]ObjectPath] {
	d.connector.checkThread()
	if !d.scanRequested.Load() {
		return Resolved[[]ObjectPath](nil, errors.New("access points read before scan request"))
	}
	paths := make([]ObjectPath, len(d.points))
	for i := range paths {
		paths[i] = ObjectPath(accessPointPrefix + strconv.Itoa(i))
	}
	return Resolved(paths, nil)
}

func (d *fakeDevice) SSID(point ObjectPath) *Pending[[]byte] {
	d.connector.checkThread()
	fake := d.points[indexOf(point, accessPointPrefix)]
	if fake.gone {
		return Resolved[[]byte](nil, fmt.Errorf("reading Ssid of %s: object does not exist", point))
	}
	return Resolved([]byte(fake.ssid), nil)
}
