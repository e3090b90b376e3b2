// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "fmt"

// Kind names a command variant. It doubles as the HTTP route and the
// control-socket action name.
type Kind string

const (
	KindCheckConnectivity Kind = "check-connectivity"
	KindListConnections   Kind = "list-connections"
	KindListWiFiNetworks  Kind = "list-wifi-networks"
)

// Kinds returns every command kind in declaration order. A Dispatcher
// must have a handler for each of them.
func Kinds() []Kind {
	return []Kind{
		KindCheckConnectivity,
		KindListConnections,
		KindListWiFiNetworks,
	}
}

// Action returns the verb phrase used in "failed to ..." error frames.
func (k Kind) Action() string {
	switch k {
	case KindCheckConnectivity:
		return "check connectivity"
	case KindListConnections:
		return "list connections"
	case KindListWiFiNetworks:
		return "list Wi-Fi networks"
	default:
		return fmt.Sprintf("run %q", string(k))
	}
}

// Command is a request for one operation on the network subsystem.
// The set of implementations is closed to this package. Commands are
// immutable values.
type Command interface {
	Kind() Kind
	isCommand()
}

// CheckConnectivity asks NetworkManager to re-check and report the
// connectivity state.
type CheckConnectivity struct{}

// ListConnections enumerates saved connection profiles.
type ListConnections struct{}

// ListWiFiNetworks triggers a wireless scan and reports the visible
// networks.
type ListWiFiNetworks struct{}

func (CheckConnectivity) Kind() Kind { return KindCheckConnectivity }
func (ListConnections) Kind() Kind   { return KindListConnections }
func (ListWiFiNetworks) Kind() Kind  { return KindListWiFiNetworks }

func (CheckConnectivity) isCommand() {}
func (ListConnections) isCommand()   {}
func (ListWiFiNetworks) isCommand()  {}

// NewCommand returns the command for kind. None of the current
// variants take parameters.
func NewCommand(kind Kind) (Command, error) {
	switch kind {
	case KindCheckConnectivity:
		return CheckConnectivity{}, nil
	case KindListConnections:
		return ListConnections{}, nil
	case KindListWiFiNetworks:
		return ListWiFiNetworks{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, string(kind))
	}
}

// Response is the typed result of a command. Each Command variant has
// exactly one Response variant with the same Kind.
type Response interface {
	Kind() Kind
	isResponse()
}

// ConnectivityResponse carries NetworkManager's connectivity state:
// unknown, none, portal, limited or full.
type ConnectivityResponse struct {
	Connectivity string `json:"connectivity"`
}

// Connection is one saved connection profile.
type Connection struct {
	ID   string `json:"id"`
	UUID string `json:"uuid"`
}

// ConnectionsResponse lists connection profiles in the order
// NetworkManager reported them. Connections is never nil on success.
type ConnectionsResponse struct {
	Connections []Connection `json:"connections"`
}

// WiFiNetworksResponse lists visible SSIDs: unique, non-empty, valid
// UTF-8, in first-seen order. The HTTP surface renders it as a bare
// array.
type WiFiNetworksResponse struct {
	SSIDs []string `json:"ssids"`
}

func (ConnectivityResponse) Kind() Kind { return KindCheckConnectivity }
func (ConnectionsResponse) Kind() Kind  { return KindListConnections }
func (WiFiNetworksResponse) Kind() Kind { return KindListWiFiNetworks }

func (ConnectivityResponse) isResponse() {}
func (ConnectionsResponse) isResponse()  {}
func (WiFiNetworksResponse) isResponse() {}

// Request is the envelope moved through the Queue: the command and the
// responder its result goes back through.
type Request struct {
	Responder *Responder
	Command   Command
}

// NewRequest wraps command with a fresh responder pair and returns the
// request for the queue and the completion for the caller.
func NewRequest(command Command) (Request, *Completion) {
	responder, completion := NewResponder()
	return Request{Responder: responder, Command: command}, completion
}
