// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package network

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDaemonUnreachable is returned by Connector.Connect when the
	// NetworkManager daemon does not own its bus name.
	ErrDaemonUnreachable = errors.New("NetworkManager daemon is not running")

	// ErrNoWirelessDevice is returned by Client.WirelessDevice when no
	// Wi-Fi device is managed.
	ErrNoWirelessDevice = errors.New("no wireless device found")

	// ErrScanTimeout is returned by a strict scan when the device did
	// not report a completed scan within the poll budget.
	ErrScanTimeout = errors.New("wireless scan did not complete")
)

// Connectivity is NetworkManager's NMConnectivityState.
type Connectivity uint32

const (
	ConnectivityUnknown Connectivity = iota
	ConnectivityNone
	ConnectivityPortal
	ConnectivityLimited
	ConnectivityFull
)

// String returns the lowercase name used in HTTP responses. Values
// outside the known range report "unknown".
func (c Connectivity) String() string {
	switch c {
	case ConnectivityNone:
		return "none"
	case ConnectivityPortal:
		return "portal"
	case ConnectivityLimited:
		return "limited"
	case ConnectivityFull:
		return "full"
	default:
		return "unknown"
	}
}

// Connection is one saved connection profile. Either field may be
// empty when the profile's settings lack it.
type Connection struct {
	ID   string
	UUID string
}

// ObjectPath names a NetworkManager object: a connection profile, a
// device or an access point.
type ObjectPath string

// Connector creates clients. Connect is called on the loop thread. It
// only talks to the bus daemon, which answers without delay.
type Connector interface {
	// Connect opens a client. It fails with an error wrapping
	// ErrDaemonUnreachable when the daemon is not running.
	Connect() (Client, error)
}

// Client is a NetworkManager client handle. It must only be used on
// the thread that created it.
//
// Every request method sends its request and returns at once. The
// reply arrives through the returned Pending, which may be waited on
// from any goroutine: a slow NetworkManager reply never holds the
// thread the request was started on.
type Client interface {
	// CheckConnectivity asks NetworkManager to re-check connectivity.
	// The reply comes once that check finishes.
	CheckConnectivity() *Pending[Connectivity]

	// ListConnections returns the saved connection profiles.
	ListConnections() *Pending[[]ObjectPath]

	// ConnectionSettings reads the id and uuid of one profile.
	ConnectionSettings(profile ObjectPath) *Pending[Connection]

	// ListDevices returns every device NetworkManager manages.
	ListDevices() *Pending[[]ObjectPath]

	// IsWireless reports whether device is a Wi-Fi device.
	IsWireless(device ObjectPath) *Pending[bool]

	// Wireless returns a handle for a device IsWireless accepted. It
	// does no I/O.
	Wireless(device ObjectPath) Device

	Close() error
}

// Device is a Wi-Fi device. It shares its Client's thread affinity and
// request style.
type Device interface {
	// RequestScan asks the device to start a scan. The reply does not
	// wait for the scan to finish.
	RequestScan() *Pending[struct{}]

	// LastScan reports when the most recent scan completed, or the
	// zero time if the device has never scanned.
	LastScan() *Pending[time.Time]

	// ListAccessPoints returns the access points the device sees.
	ListAccessPoints() *Pending[[]ObjectPath]

	// SSID reads one access point's SSID. The 802.11 SSID is raw
	// bytes and is not required to be text.
	SSID(point ObjectPath) *Pending[[]byte]
}

// ScanPolicy bounds the wait for a requested scan to complete.
type ScanPolicy struct {
	// Interval is the delay before each completion check.
	Interval time.Duration

	// Attempts is the number of completion checks.
	Attempts int

	// FailOnTimeout selects the outcome when no check observes a
	// completed scan: ErrScanTimeout if true, otherwise the access
	// points the device currently reports.
	FailOnTimeout bool
}

// DefaultScanPolicy polls once a second for 45 seconds and then
// settles for whatever the device has.
func DefaultScanPolicy() ScanPolicy {
	return ScanPolicy{
		Interval: time.Second,
		Attempts: 45,
	}
}

// Validate reports a policy that could never observe a scan.
func (p ScanPolicy) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("scan interval must be positive, got %s", p.Interval)
	}
	if p.Attempts <= 0 {
		return fmt.Errorf("scan attempts must be positive, got %d", p.Attempts)
	}
	return nil
}
