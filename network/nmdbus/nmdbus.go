// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nmdbus

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/netbridge/network"
)

// NetworkManager D-Bus names.
const (
	busName = "org.freedesktop.NetworkManager"

	rootPath     = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	settingsPath = dbus.ObjectPath("/org/freedesktop/NetworkManager/Settings")

	managerInterface     = "org.freedesktop.NetworkManager"
	settingsInterface    = "org.freedesktop.NetworkManager.Settings"
	connectionInterface  = "org.freedesktop.NetworkManager.Settings.Connection"
	deviceInterface      = "org.freedesktop.NetworkManager.Device"
	wirelessInterface    = "org.freedesktop.NetworkManager.Device.Wireless"
	accessPointInterface = "org.freedesktop.NetworkManager.AccessPoint"

	nameHasOwner  = "org.freedesktop.DBus.NameHasOwner"
	propertiesGet = "org.freedesktop.DBus.Properties.Get"
)

// deviceTypeWiFi is NM_DEVICE_TYPE_WIFI.
const deviceTypeWiFi uint32 = 2

// Connector opens NetworkManager clients on the system bus.
type Connector struct{}

// NewConnector returns a Connector for the system bus.
func NewConnector() *Connector {
	return &Connector{}
}

// Connect opens a private system bus connection and checks that
// NetworkManager owns its bus name. Both calls go to the bus daemon
// rather than NetworkManager and are answered immediately, so Connect
// waits for them.
func (c *Connector) Connect() (network.Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to system bus: %w", err)
	}

	var running bool
	if err := conn.BusObject().Call(nameHasOwner, 0, busName).Store(&running); err != nil {
		conn.Close()
		return nil, fmt.Errorf("looking up %s: %w", busName, err)
	}
	if !running {
		conn.Close()
		return nil, network.ErrDaemonUnreachable
	}
	return &Client{conn: conn}, nil
}

// Client is a NetworkManager client bound to one bus connection.
// Requests are sent with Object.Go; the reply is decoded on a
// goroutine of its own and delivered through a network.Pending.
type Client struct {
	conn *dbus.Conn
}

// CheckConnectivity asks NetworkManager to re-check connectivity. The
// reply arrives once NetworkManager's HTTP connectivity check finishes.
func (c *Client) CheckConnectivity() *network.Pending[network.Connectivity] {
	method := managerInterface + ".CheckConnectivity"
	return send(c.conn.Object(busName, rootPath), method, func(call *dbus.Call) (network.Connectivity, error) {
		var state uint32
		if err := call.Store(&state); err != nil {
			return network.ConnectivityUnknown, fmt.Errorf("calling CheckConnectivity: %w", err)
		}
		return network.Connectivity(state), nil
	})
}

// ListConnections lists the saved connection profiles.
func (c *Client) ListConnections() *network.Pending[[]network.ObjectPath] {
	return send(c.conn.Object(busName, settingsPath), settingsInterface+".ListConnections", storePaths("ListConnections"))
}

// ConnectionSettings reads one profile's id and uuid.
func (c *Client) ConnectionSettings(profile network.ObjectPath) *network.Pending[network.Connection] {
	object := c.conn.Object(busName, dbus.ObjectPath(profile))
	return send(object, connectionInterface+".GetSettings", func(call *dbus.Call) (network.Connection, error) {
		var settings map[string]map[string]dbus.Variant
		if err := call.Store(&settings); err != nil {
			return network.Connection{}, fmt.Errorf("reading settings of %s: %w", profile, err)
		}
		return connectionFromSettings(settings), nil
	})
}

// connectionFromSettings extracts the "connection" setting's id and
// uuid. Missing or mistyped values are left empty.
func connectionFromSettings(settings map[string]map[string]dbus.Variant) network.Connection {
	section := settings["connection"]
	var connection network.Connection
	if id, ok := section["id"].Value().(string); ok {
		connection.ID = id
	}
	if uuid, ok := section["uuid"].Value().(string); ok {
		connection.UUID = uuid
	}
	return connection
}

// ListDevices lists every managed device.
func (c *Client) ListDevices() *network.Pending[[]network.ObjectPath] {
	return send(c.conn.Object(busName, rootPath), managerInterface+".GetDevices", storePaths("GetDevices"))
}

// IsWireless reads the device's DeviceType property.
func (c *Client) IsWireless(device network.ObjectPath) *network.Pending[bool] {
	object := c.conn.Object(busName, dbus.ObjectPath(device))
	return property(object, deviceInterface, "DeviceType", func(variant dbus.Variant) (bool, error) {
		deviceType, ok := variant.Value().(uint32)
		return ok && deviceType == deviceTypeWiFi, nil
	})
}

// Wireless returns a handle for the Wi-Fi device at path.
func (c *Client) Wireless(device network.ObjectPath) network.Device {
	return &Device{client: c, object: c.conn.Object(busName, dbus.ObjectPath(device))}
}

// Close closes the bus connection. Requests still in flight fail.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Device is a NetworkManager Wi-Fi device.
type Device struct {
	client *Client
	object dbus.BusObject
}

// RequestScan starts a scan with default options.
func (d *Device) RequestScan() *network.Pending[struct{}] {
	options := map[string]dbus.Variant{}
	return send(d.object, wirelessInterface+".RequestScan", func(call *dbus.Call) (struct{}, error) {
		if call.Err != nil {
			return struct{}{}, fmt.Errorf("calling RequestScan: %w", call.Err)
		}
		return struct{}{}, nil
	}, options)
}

// LastScan converts the device's LastScan property, milliseconds of
// CLOCK_BOOTTIME, to wall-clock time.
func (d *Device) LastScan() *network.Pending[time.Time] {
	return property(d.object, wirelessInterface, "LastScan", func(variant dbus.Variant) (time.Time, error) {
		millis, ok := variant.Value().(int64)
		if !ok {
			return time.Time{}, fmt.Errorf("LastScan has type %s, want int64", variant.Signature())
		}
		sinceBoot, err := bootTime()
		if err != nil {
			return time.Time{}, err
		}
		return bootMillisToWall(millis, time.Now(), sinceBoot), nil
	})
}

// ListAccessPoints lists every access point the device currently sees.
func (d *Device) ListAccessPoints() *network.Pending[[]network.ObjectPath] {
	return send(d.object, wirelessInterface+".GetAllAccessPoints", storePaths("GetAllAccessPoints"))
}

// SSID reads one access point's Ssid property.
func (d *Device) SSID(point network.ObjectPath) *network.Pending[[]byte] {
	object := d.client.conn.Object(busName, dbus.ObjectPath(point))
	return property(object, accessPointInterface, "Ssid", func(variant dbus.Variant) ([]byte, error) {
		ssid, _ := variant.Value().([]byte)
		return ssid, nil
	})
}

// send issues method on object without waiting for the reply. decode
// runs on its own goroutine once the reply, or the failure to send,
// arrives.
func send[T any](object dbus.BusObject, method string, decode func(*dbus.Call) (T, error), args ...any) *network.Pending[T] {
	pending := network.NewPending[T]()
	call := object.Go(method, 0, make(chan *dbus.Call, 1), args...)
	go func() {
		<-call.Done
		pending.Resolve(decode(call))
	}()
	return pending
}

// property reads iface.name on object through org.freedesktop.DBus.Properties.
func property[T any](object dbus.BusObject, iface, name string, convert func(dbus.Variant) (T, error)) *network.Pending[T] {
	return send(object, propertiesGet, func(call *dbus.Call) (T, error) {
		var variant dbus.Variant
		if err := call.Store(&variant); err != nil {
			var zero T
			return zero, fmt.Errorf("reading %s of %s: %w", name, object.Path(), err)
		}
		return convert(variant)
	}, iface, name)
}

// storePaths decodes a reply carrying one array of object paths.
func storePaths(method string) func(*dbus.Call) ([]network.ObjectPath, error) {
	return func(call *dbus.Call) ([]network.ObjectPath, error) {
		var raw []dbus.ObjectPath
		if err := call.Store(&raw); err != nil {
			return nil, fmt.Errorf("calling %s: %w", method, err)
		}
		return objectPaths(raw), nil
	}
}

func objectPaths(raw []dbus.ObjectPath) []network.ObjectPath {
	paths := make([]network.ObjectPath, len(raw))
	for i, path := range raw {
		paths[i] = network.ObjectPath(path)
	}
	return paths
}

// bootTime returns the time since boot, including suspend.
func bootTime() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_BOOTTIME, &ts); err != nil {
		return 0, fmt.Errorf("reading CLOCK_BOOTTIME: %w", err)
	}
	return time.Duration(ts.Nano()), nil
}

// bootMillisToWall maps a CLOCK_BOOTTIME timestamp in milliseconds to
// wall time, given the wall and boot clocks read at the same moment.
// Negative timestamps mean "never" and map to the zero time.
func bootMillisToWall(millis int64, now time.Time, sinceBoot time.Duration) time.Time {
	if millis < 0 {
		return time.Time{}
	}
	elapsed := sinceBoot - time.Duration(millis)*time.Millisecond
	return now.Add(-elapsed)
}
