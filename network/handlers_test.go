// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package network

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bureau-foundation/netbridge/bridge"
	"github.com/bureau-foundation/netbridge/lib/clock"
	"github.com/bureau-foundation/netbridge/lib/testutil"
)

const testTimeout = 5 * time.Second

// newTestHandlers wires a fakeConnector to Handlers. setup adjusts the
// connector before use.
func newTestHandlers(t *testing.T, scan ScanPolicy, setup func(*fakeConnector, *clock.FakeClock)) (*Handlers, *fakeConnector, *fakeThread, *clock.FakeClock) {
	t.Helper()
	thread := &fakeThread{}
	connector := &fakeConnector{thread: thread}
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if setup != nil {
		setup(connector, fake)
	}
	handlers, err := New(Config{
		Connector: connector,
		Clock:     fake,
		Scan:      scan,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if n := connector.offThread.Load(); n != 0 {
			t.Errorf("%d client calls made outside a Do closure", n)
		}
		if !connector.allClosed() {
			t.Error("a client was left open")
		}
	})
	return handlers, connector, thread, fake
}

// run executes kind's handler synchronously.
func run(t *testing.T, handlers *Handlers, thread bridge.Thread, kind bridge.Kind) (bridge.Response, error) {
	t.Helper()
	command, err := bridge.NewCommand(kind)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	return handlers.Table()[kind](context.Background(), thread, command)
}

type handlerResult struct {
	response bridge.Response
	err      error
}

// runAsync executes kind's handler in a goroutine, for handlers that
// wait on the fake clock.
func runAsync(handlers *Handlers, thread bridge.Thread, kind bridge.Kind) <-chan handlerResult {
	done := make(chan handlerResult, 1)
	go func() {
		command, err := bridge.NewCommand(kind)
		if err != nil {
			done <- handlerResult{err: err}
			return
		}
		response, err := handlers.Table()[kind](context.Background(), thread, command)
		done <- handlerResult{response: response, err: err}
	}()
	return done
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New accepted a config without a Connector")
	}
	_, err := New(Config{
		Connector: &fakeConnector{},
		Scan:      ScanPolicy{Interval: time.Second},
	})
	if err == nil {
		t.Fatal("New accepted a scan policy with zero attempts")
	}
}

func TestTableCoversEveryKind(t *testing.T) {
	handlers, err := New(Config{Connector: &fakeConnector{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := bridge.NewDispatcher(handlers.Table(), testLogger()); err != nil {
		t.Fatalf("NewDispatcher rejected the network table: %v", err)
	}
}

func TestCheckConnectivity(t *testing.T) {
	handlers, _, thread, _ := newTestHandlers(t, ScanPolicy{}, func(c *fakeConnector, _ *clock.FakeClock) {
		c.connectivity = ConnectivityPortal
	})

	response, err := run(t, handlers, thread, bridge.KindCheckConnectivity)
	if err != nil {
		t.Fatalf("check connectivity: %v", err)
	}
	if got := response.(bridge.ConnectivityResponse).Connectivity; got != "portal" {
		t.Fatalf("connectivity = %q, want portal", got)
	}
}

func TestDaemonUnreachable(t *testing.T) {
	for _, kind := range bridge.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			handlers, _, thread, _ := newTestHandlers(t, ScanPolicy{}, func(c *fakeConnector, _ *clock.FakeClock) {
				c.err = ErrDaemonUnreachable
			})

			_, err := run(t, handlers, thread, kind)
			if !errors.Is(err, ErrDaemonUnreachable) {
				t.Fatalf("error = %v, want ErrDaemonUnreachable", err)
			}
			want := []string{"creating NetworkManager client", "NetworkManager daemon is not running"}
			if got := bridge.Chain(err); !reflect.DeepEqual(got, want) {
				t.Fatalf("Chain = %q, want %q", got, want)
			}
		})
	}
}

func TestListConnectionsSkipsIncompleteProfiles(t *testing.T) {
	handlers, _, thread, _ := newTestHandlers(t, ScanPolicy{}, func(c *fakeConnector, _ *clock.FakeClock) {
		c.connections = []Connection{
			{ID: "Wired connection 1", UUID: "0f1e2d3c-0000-4000-8000-000000000001"},
			{ID: "", UUID: "0f1e2d3c-0000-4000-8000-000000000002"},
			{ID: "orphan", UUID: ""},
			{ID: "office", UUID: "0f1e2d3c-0000-4000-8000-000000000003"},
		}
	})

	response, err := run(t, handlers, thread, bridge.KindListConnections)
	if err != nil {
		t.Fatalf("list connections: %v", err)
	}
	want := []bridge.Connection{
		{ID: "Wired connection 1", UUID: "0f1e2d3c-0000-4000-8000-000000000001"},
		{ID: "office", UUID: "0f1e2d3c-0000-4000-8000-000000000003"},
	}
	if got := response.(bridge.ConnectionsResponse).Connections; !reflect.DeepEqual(got, want) {
		t.Fatalf("connections = %+v, want %+v", got, want)
	}
}

func TestListConnectionsEmpty(t *testing.T) {
	handlers, _, thread, _ := newTestHandlers(t, ScanPolicy{}, nil)

	response, err := run(t, handlers, thread, bridge.KindListConnections)
	if err != nil {
		t.Fatalf("list connections: %v", err)
	}
	connections := response.(bridge.ConnectionsResponse).Connections
	if connections == nil || len(connections) != 0 {
		t.Fatalf("connections = %#v, want empty non-nil slice", connections)
	}
}

func TestListConnectionsFailureClosesClient(t *testing.T) {
	readErr := errors.New("settings service timed out")
	handlers, _, thread, _ := newTestHandlers(t, ScanPolicy{}, func(c *fakeConnector, _ *clock.FakeClock) {
		c.connectionsErr = readErr
	})

	_, err := run(t, handlers, thread, bridge.KindListConnections)
	if !errors.Is(err, readErr) {
		t.Fatalf("error = %v, want %v", err, readErr)
	}
	// The cleanup check verifies the client was closed.
}

func TestListConnectionsSettingsFailure(t *testing.T) {
	readErr := errors.New("permission denied")
	handlers, _, thread, _ := newTestHandlers(t, ScanPolicy{}, func(c *fakeConnector, _ *clock.FakeClock) {
		c.connections = []Connection{{ID: "home", UUID: "0f1e2d3c-0000-4000-8000-000000000001"}}
		c.settingsErr = readErr
	})

	_, err := run(t, handlers, thread, bridge.KindListConnections)
	if !errors.Is(err, readErr) {
		t.Fatalf("error = %v, want %v", err, readErr)
	}
	if got := bridge.Chain(err)[0]; got != "reading connection profiles" {
		t.Fatalf("first frame = %q, want reading connection profiles", got)
	}
}

func TestRequestsSentTogether(t *testing.T) {
	handlers, _, thread, _ := newTestHandlers(t, ScanPolicy{}, func(c *fakeConnector, _ *clock.FakeClock) {
		c.connections = []Connection{
			{ID: "a", UUID: "0f1e2d3c-0000-4000-8000-00000000000a"},
			{ID: "b", UUID: "0f1e2d3c-0000-4000-8000-00000000000b"},
			{ID: "c", UUID: "0f1e2d3c-0000-4000-8000-00000000000c"},
		}
	})

	if _, err := run(t, handlers, thread, bridge.KindListConnections); err != nil {
		t.Fatalf("list connections: %v", err)
	}
	// Connect, ListConnections, the three settings reads, Close.
	if got := thread.calls.Load(); got != 4 {
		t.Fatalf("visited the loop thread %d times, want 4", got)
	}
}

func TestListWiFiNetworksWithoutDevice(t *testing.T) {
	handlers, _, thread, _ := newTestHandlers(t, ScanPolicy{}, nil)

	_, err := run(t, handlers, thread, bridge.KindListWiFiNetworks)
	if !errors.Is(err, ErrNoWirelessDevice) {
		t.Fatalf("error = %v, want ErrNoWirelessDevice", err)
	}
}

func TestListWiFiNetworksScanRequestFailure(t *testing.T) {
	busy := errors.New("scan already in progress")
	handlers, _, thread, fake := newTestHandlers(t, ScanPolicy{}, func(c *fakeConnector, clk *clock.FakeClock) {
		c.device = &fakeDevice{connector: c, clock: clk, scanErr: busy}
	})

	_, err := run(t, handlers, thread, bridge.KindListWiFiNetworks)
	if !errors.Is(err, busy) {
		t.Fatalf("error = %v, want %v", err, busy)
	}
	if got := bridge.Chain(err)[0]; got != "requesting wireless scan" {
		t.Fatalf("first frame = %q, want requesting wireless scan", got)
	}
	if n := fake.PendingCount(); n != 0 {
		t.Fatalf("%d timers pending after a failed scan request", n)
	}
}

func TestListWiFiNetworksStopsPollingOnCompletion(t *testing.T) {
	policy := ScanPolicy{Interval: time.Second, Attempts: 10}
	var device *fakeDevice
	handlers, _, thread, fake := newTestHandlers(t, policy, func(c *fakeConnector, clk *clock.FakeClock) {
		device = &fakeDevice{
			connector:  c,
			clock:      clk,
			completeOn: 3,
			points: []fakePoint{
				{ssid: "home"},
				{ssid: ""},
				{ssid: "lobby", gone: true},
				{ssid: "cafe"},
				{ssid: "home"},
			},
		}
		c.device = device
	})

	done := runAsync(handlers, thread, bridge.KindListWiFiNetworks)

	for i := 0; i < 3; i++ {
		fake.WaitForTimers(1)
		fake.Advance(policy.Interval)
	}
	result := testutil.RequireReceive(t, done, testTimeout, "scan result")
	if result.err != nil {
		t.Fatalf("list wifi networks: %v", result.err)
	}
	if got := device.checks.Load(); got != 3 {
		t.Fatalf("polled %d times, want 3", got)
	}
	if n := fake.PendingCount(); n != 0 {
		t.Fatalf("%d timers pending after the scan completed", n)
	}
	if got := result.response.(bridge.WiFiNetworksResponse).SSIDs; !reflect.DeepEqual(got, []string{"home", "cafe"}) {
		t.Fatalf("ssids = %q, want [home cafe]", got)
	}
}

func TestListWiFiNetworksBudgetExhausted(t *testing.T) {
	tests := []struct {
		name          string
		failOnTimeout bool
		wantErr       error
	}{
		{name: "lenient reads current access points", failOnTimeout: false},
		{name: "strict fails", failOnTimeout: true, wantErr: ErrScanTimeout},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			policy := ScanPolicy{Interval: 500 * time.Millisecond, Attempts: 4, FailOnTimeout: test.failOnTimeout}
			var device *fakeDevice
			handlers, _, thread, fake := newTestHandlers(t, policy, func(c *fakeConnector, clk *clock.FakeClock) {
				device = &fakeDevice{
					connector: c,
					clock:     clk,
					points:    []fakePoint{{ssid: "stale"}},
				}
				c.device = device
			})

			done := runAsync(handlers, thread, bridge.KindListWiFiNetworks)
			for i := 0; i < policy.Attempts; i++ {
				fake.WaitForTimers(1)
				fake.Advance(policy.Interval)
			}
			result := testutil.RequireReceive(t, done, testTimeout, "scan result")
			err := result.err

			if got := device.checks.Load(); int(got) != policy.Attempts {
				t.Fatalf("polled %d times, want %d", got, policy.Attempts)
			}
			if test.wantErr == nil {
				if err != nil {
					t.Fatalf("lenient scan: %v", err)
				}
				if got := result.response.(bridge.WiFiNetworksResponse).SSIDs; !reflect.DeepEqual(got, []string{"stale"}) {
					t.Fatalf("ssids = %q, want [stale]", got)
				}
				return
			}
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestFilterSSIDs(t *testing.T) {
	tests := []struct {
		name string
		raw  [][]byte
		want []string
	}{
		{name: "nil", raw: nil, want: []string{}},
		{
			name: "order kept",
			raw:  [][]byte{[]byte("b"), []byte("a"), []byte("c")},
			want: []string{"b", "a", "c"},
		},
		{
			name: "duplicates dropped",
			raw:  [][]byte{[]byte("home"), []byte("cafe"), []byte("home")},
			want: []string{"home", "cafe"},
		},
		{
			name: "empty dropped",
			raw:  [][]byte{{}, []byte("home"), nil},
			want: []string{"home"},
		},
		{
			name: "invalid utf-8 dropped",
			raw:  [][]byte{{0xff, 0xfe, 0x00}, []byte("caf\xc3\xa9")},
			want: []string{"café"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := FilterSSIDs(test.raw); !reflect.DeepEqual(got, test.want) {
				t.Fatalf("FilterSSIDs = %q, want %q", got, test.want)
			}
		})
	}
}

func TestConnectivityString(t *testing.T) {
	want := map[Connectivity]string{
		ConnectivityUnknown: "unknown",
		ConnectivityNone:    "none",
		ConnectivityPortal:  "portal",
		ConnectivityLimited: "limited",
		ConnectivityFull:    "full",
		Connectivity(42):    "unknown",
	}
	for state, name := range want {
		if got := state.String(); got != name {
			t.Errorf("Connectivity(%d).String() = %q, want %q", uint32(state), got, name)
		}
	}
}
