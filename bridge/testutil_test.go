// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/netbridge/lib/testutil"
)

// testTimeout bounds every wait in this package's tests.
const testTimeout = 5 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// fixedHandler returns a handler that always succeeds with response.
func fixedHandler(response Response) Handler {
	return func(context.Context, Thread, Command) (Response, error) {
		return response, nil
	}
}

// completeTable fills every kind missing from table with a handler
// returning a canned response.
func completeTable(table HandlerTable) HandlerTable {
	defaults := HandlerTable{
		KindCheckConnectivity: fixedHandler(ConnectivityResponse{Connectivity: "full"}),
		KindListConnections:   fixedHandler(ConnectionsResponse{Connections: []Connection{}}),
		KindListWiFiNetworks:  fixedHandler(WiFiNetworksResponse{SSIDs: []string{}}),
	}
	for kind, handler := range table {
		defaults[kind] = handler
	}
	return defaults
}

// testBridge is a started Loop with its root Sender.
type testBridge struct {
	loop   *Loop
	sender *Sender
}

// startBridge starts a loop serving table (completed with defaults).
// The sender and loop are shut down when the test ends.
func startBridge(t *testing.T, table HandlerTable) *testBridge {
	t.Helper()
	dispatcher, err := NewDispatcher(completeTable(table), testLogger())
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return startBridgeWith(t, dispatcher)
}

func startBridgeWith(t *testing.T, dispatcher RequestDispatcher) *testBridge {
	t.Helper()
	queue, sender := NewQueue()
	loop := NewLoop(LoopConfig{
		Queue:      queue,
		Dispatcher: dispatcher,
		Logger:     testLogger(),
	})
	if err := loop.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		sender.Close()
		testutil.RequireClosed(t, loop.Done(), testTimeout, "loop stop at cleanup")
	})
	return &testBridge{loop: loop, sender: sender}
}

// submitResult is one Submit outcome, for collecting from goroutines.
type submitResult struct {
	response Response
	err      error
}

// submitAsync runs Submit in a goroutine and returns its outcome
// channel.
func submitAsync(ctx context.Context, sender *Sender, command Command) <-chan submitResult {
	results := make(chan submitResult, 1)
	go func() {
		response, err := sender.Submit(ctx, command)
		results <- submitResult{response: response, err: err}
	}()
	return results
}

// gate is a handler that blocks until released and reports when it
// has started and finished.
type gate struct {
	started  chan struct{}
	release  chan struct{}
	finished chan struct{}
	once     sync.Once
	response Response
}

func newGate(response Response) *gate {
	return &gate{
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		finished: make(chan struct{}),
		response: response,
	}
}

func (g *gate) handler(context.Context, Thread, Command) (Response, error) {
	close(g.started)
	<-g.release
	defer close(g.finished)
	return g.response, nil
}

func (g *gate) open() {
	g.once.Do(func() { close(g.release) })
}
