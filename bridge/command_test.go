// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"testing"
)

func TestNewCommandCoversEveryKind(t *testing.T) {
	for _, kind := range Kinds() {
		command, err := NewCommand(kind)
		if err != nil {
			t.Fatalf("NewCommand(%q): %v", kind, err)
		}
		if command.Kind() != kind {
			t.Fatalf("NewCommand(%q).Kind() = %q", kind, command.Kind())
		}
	}

	if _, err := NewCommand("reboot"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("NewCommand(reboot) error = %v, want ErrUnknownCommand", err)
	}
}

func TestResponseKindsMirrorCommands(t *testing.T) {
	pairs := []struct {
		command  Command
		response Response
	}{
		{CheckConnectivity{}, ConnectivityResponse{}},
		{ListConnections{}, ConnectionsResponse{}},
		{ListWiFiNetworks{}, WiFiNetworksResponse{}},
	}
	if len(pairs) != len(Kinds()) {
		t.Fatalf("test covers %d kinds, package declares %d", len(pairs), len(Kinds()))
	}
	for _, pair := range pairs {
		if pair.command.Kind() != pair.response.Kind() {
			t.Errorf("%T kind %q != %T kind %q",
				pair.command, pair.command.Kind(), pair.response, pair.response.Kind())
		}
	}
}

func TestKindAction(t *testing.T) {
	tests := map[Kind]string{
		KindCheckConnectivity: "check connectivity",
		KindListConnections:   "list connections",
		KindListWiFiNetworks:  "list Wi-Fi networks",
		Kind("reboot"):        `run "reboot"`,
	}
	for kind, want := range tests {
		if got := kind.Action(); got != want {
			t.Errorf("%q.Action() = %q, want %q", kind, got, want)
		}
	}
}
