// Package protocol implements the byte-exact wire formats spoken between the
// remote and an Insta360-family camera: advertising payloads, command frames
// and inbound telemetry frames. Everything here is a pure function.
package protocol

import "fmt"

// GATT identifiers of the remote's service.
const (
	ServiceUUID    = "0000ce80-0000-1000-8000-00805f9b34fb"
	WriteCharUUID  = "0000ce81-0000-1000-8000-00805f9b34fb" // camera -> remote
	NotifyCharUUID = "0000ce82-0000-1000-8000-00805f9b34fb" // remote -> camera
)

// WakePayloadLen is the size of the camera-specific wake trigger.
const WakePayloadLen = 6

// WakeBlockLen is the size of the beacon-style manufacturer data block.
const WakeBlockLen = 26

// Wake block layout.
//
//	[0:2]   vendor id
//	[2:4]   beacon-format marker
//	[4:14]  format prefix
//	[14:20] wake payload
//	[20:24] major/minor, zero
//	[24]    tx power
//	[25]    trailer
var (
	wakeVendorID     = [2]byte{0x4c, 0x00}
	wakeBeaconMarker = [2]byte{0x02, 0x15}
	wakeFormatPrefix = [10]byte{0x09, 0x4f, 0x52, 0x42, 0x49, 0x54, 0x09, 0xff, 0x0f, 0x00}
)

const (
	wakeTxPower = 0xe4
	wakeTrailer = 0x01
)

// WakeCompanyID is the little-endian vendor id carried in the first two
// bytes of the wake block.
const WakeCompanyID uint16 = 0x004c

// Advertisement is the content of a single broadcast configuration.
type Advertisement struct {
	LocalName    string
	ServiceUUIDs []string
	// ManufacturerData is the full manufacturer-specific block including
	// the two leading company-id bytes. Nil for normal advertising.
	ManufacturerData []byte
}

// IsWake reports whether the advertisement carries a wake block.
func (a Advertisement) IsWake() bool {
	return len(a.ManufacturerData) == WakeBlockLen
}

// BroadcastName builds "<product label> <remote identifier>".
func BroadcastName(label, identifier string) string {
	if identifier == "" {
		return label
	}
	return label + " " + identifier
}

// EncodeWakeAdvertisement builds the timed wake broadcast for a camera.
func EncodeWakeAdvertisement(payload [WakePayloadLen]byte, name string) Advertisement {
	block := make([]byte, WakeBlockLen)
	copy(block[0:2], wakeVendorID[:])
	copy(block[2:4], wakeBeaconMarker[:])
	copy(block[4:14], wakeFormatPrefix[:])
	copy(block[14:20], payload[:])
	// block[20:24] stays zero
	block[24] = wakeTxPower
	block[25] = wakeTrailer
	return Advertisement{
		LocalName:        name,
		ManufacturerData: block,
	}
}

// EncodeNormalAdvertisement builds the identification broadcast: name and
// service only, no manufacturer data.
func EncodeNormalAdvertisement(name string) Advertisement {
	return Advertisement{
		LocalName:    name,
		ServiceUUIDs: []string{ServiceUUID},
	}
}

// WakePayloadFromName derives the wake trigger from the last six bytes of a
// camera's advertised name.
func WakePayloadFromName(name string) ([WakePayloadLen]byte, error) {
	var p [WakePayloadLen]byte
	if len(name) < WakePayloadLen {
		return p, fmt.Errorf("protocol: name %q shorter than %d bytes", name, WakePayloadLen)
	}
	copy(p[:], name[len(name)-WakePayloadLen:])
	return p, nil
}
