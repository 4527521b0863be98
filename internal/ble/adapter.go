// Package ble provides the radio transport the remote runs on. The remote is
// a GATT peripheral: the camera connects to it, writes telemetry into one
// characteristic and receives commands as notifications on another. Outside
// a connection the remote advertises and, while pairing, passively scans.
package ble

import "github.com/chaz8081/camremote/internal/ble/protocol"

// Event is one of the asynchronous radio events: ConnectEvent,
// DisconnectEvent, AdvertisementSeen or FrameReceived.
type Event interface {
	isEvent()
}

// ConnectEvent reports a central (the camera) connecting to us.
type ConnectEvent struct {
	Address string
}

// DisconnectEvent reports a link drop.
type DisconnectEvent struct {
	Address string
}

// AdvertisementSeen reports a named advertisement observed while scanning.
type AdvertisementSeen struct {
	Name    string
	Address string
	RSSI    int
}

// FrameReceived carries bytes the camera wrote to the write characteristic.
type FrameReceived struct {
	Data []byte
}

func (ConnectEvent) isEvent()      {}
func (DisconnectEvent) isEvent()   {}
func (AdvertisementSeen) isEvent() {}
func (FrameReceived) isEvent()     {}

// Handler receives radio events. Implementations must not block for long:
// events are delivered on the radio stack's callback context.
type Handler interface {
	HandleEvent(ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev Event)

// HandleEvent calls f(ev).
func (f HandlerFunc) HandleEvent(ev Event) { f(ev) }

// Radio abstracts the BLE stack for testing.
type Radio interface {
	// Enable powers on the stack, registers the GATT service and starts
	// delivering events to h.
	Enable(h Handler) error
	// StartScan begins continuous passive scanning.
	StartScan() error
	// StopScan ends scanning. Stopping an idle scanner is not an error.
	StopScan() error
	// StartAdvertising configures and starts a broadcast.
	StartAdvertising(adv protocol.Advertisement) error
	// StopAdvertising stops the current broadcast.
	StopAdvertising() error
	// Notify pushes data to the connected camera on the notify characteristic.
	Notify(data []byte) error
	// Disconnect drops the link to the peer with the given address.
	Disconnect(address string) error
	// ConnectedCount returns the number of live links.
	ConnectedCount() int
}
