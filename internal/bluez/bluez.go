// Package bluez prepares the Linux Bluetooth adapter over the system D-Bus
// before the radio stack takes it: it checks BlueZ is running and powers the
// adapter on.
package bluez

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/godbus/dbus/v5"
)

const (
	busName      = "org.bluez"
	adapterIface = "org.bluez.Adapter1"
	propsIface   = "org.freedesktop.DBus.Properties"
)

// AdapterPath converts an adapter name like "hci0" to its object path.
func AdapterPath(name string) dbus.ObjectPath {
	return dbus.ObjectPath("/org/bluez/" + name)
}

// bus is the D-Bus surface the adapter needs.
type bus interface {
	Names() ([]string, error)
	Get(path dbus.ObjectPath, iface, prop string) (dbus.Variant, error)
	Set(path dbus.ObjectPath, iface, prop string, val any) error
	Close() error
}

// Adapter is one BlueZ controller.
type Adapter struct {
	bus  bus
	name string
	path dbus.ObjectPath
}

// Open connects to the system bus and checks BlueZ is on it.
func Open(name string) (*Adapter, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("bluez: connect to system bus: %w", err)
	}
	a, err := newAdapter(systemBus{conn}, name)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return a, nil
}

func newAdapter(b bus, name string) (*Adapter, error) {
	names, err := b.Names()
	if err != nil {
		return nil, fmt.Errorf("bluez: list bus names: %w", err)
	}
	if !slices.Contains(names, busName) {
		return nil, fmt.Errorf("bluez: %s not found on system bus, is bluetooth.service running?", busName)
	}
	return &Adapter{bus: b, name: name, path: AdapterPath(name)}, nil
}

// Close releases the bus connection.
func (a *Adapter) Close() error {
	return a.bus.Close()
}

// Powered reports the adapter's power state.
func (a *Adapter) Powered() (bool, error) {
	v, err := a.bus.Get(a.path, adapterIface, "Powered")
	if err != nil {
		return false, fmt.Errorf("bluez: %s powered: %w", a.name, err)
	}
	on, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("bluez: %s property Powered is not bool", a.name)
	}
	return on, nil
}

// Address returns the adapter's Bluetooth address.
func (a *Adapter) Address() (string, error) {
	v, err := a.bus.Get(a.path, adapterIface, "Address")
	if err != nil {
		return "", fmt.Errorf("bluez: %s address: %w", a.name, err)
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("bluez: %s property Address is not string", a.name)
	}
	return s, nil
}

// EnsurePowered switches the adapter on if it is off.
func (a *Adapter) EnsurePowered() error {
	on, err := a.Powered()
	if err != nil {
		return err
	}
	if on {
		slog.Debug("[BLE] adapter already powered", "adapter", a.name)
		return nil
	}
	slog.Info("[BLE] powering on adapter", "adapter", a.name)
	if err := a.bus.Set(a.path, adapterIface, "Powered", true); err != nil {
		return fmt.Errorf("bluez: power on %s: %w", a.name, err)
	}
	return nil
}

// systemBus adapts a dbus connection to bus.
type systemBus struct {
	conn *dbus.Conn
}

func (s systemBus) Names() ([]string, error) {
	var names []string
	err := s.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	return names, err
}

func (s systemBus) Get(path dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	err := s.conn.Object(busName, path).Call(propsIface+".Get", 0, iface, prop).Store(&v)
	return v, err
}

func (s systemBus) Set(path dbus.ObjectPath, iface, prop string, val any) error {
	return s.conn.Object(busName, path).Call(propsIface+".Set", 0, iface, prop, dbus.MakeVariant(val)).Err
}

func (s systemBus) Close() error {
	return s.conn.Close()
}
