package remote

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/chaz8081/camremote/internal/ble"
	"github.com/chaz8081/camremote/internal/ble/protocol"
)

// AdvertisingMode is the broadcast currently on air.
type AdvertisingMode int

const (
	AdvertisingOff AdvertisingMode = iota
	AdvertisingNormal
	AdvertisingWake
)

func (m AdvertisingMode) String() string {
	switch m {
	case AdvertisingNormal:
		return "normal"
	case AdvertisingWake:
		return "wake"
	default:
		return "off"
	}
}

// Advertiser switches between normal and wake broadcasts. Every switch
// stops the running broadcast, waits settle for the stack to confirm, and
// only then starts the next one. Not safe for concurrent use; the
// Controller drives it from its loop.
type Advertiser struct {
	radio  ble.Radio
	clock  Clock
	name   string
	settle time.Duration

	mode    AdvertisingMode
	payload [protocol.WakePayloadLen]byte
}

// NewAdvertiser creates an advertiser broadcasting under name.
func NewAdvertiser(radio ble.Radio, clock Clock, name string, settle time.Duration) *Advertiser {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Advertiser{radio: radio, clock: clock, name: name, settle: settle}
}

// Mode returns the active broadcast and, for AdvertisingWake, its payload.
func (a *Advertiser) Mode() (AdvertisingMode, [protocol.WakePayloadLen]byte) {
	return a.mode, a.payload
}

// EnterNormal starts the identification broadcast.
func (a *Advertiser) EnterNormal() error {
	slog.Debug("[ADV] entering normal advertising", "name", a.name)
	return a.enter(protocol.EncodeNormalAdvertisement(a.name), AdvertisingNormal, [protocol.WakePayloadLen]byte{})
}

// EnterWake starts the wake broadcast for payload. The caller times the
// pulse and calls EnterNormal afterwards.
func (a *Advertiser) EnterWake(payload [protocol.WakePayloadLen]byte) error {
	slog.Info("[ADV] entering wake advertising", "payload", protocol.HexString(payload[:]))
	return a.enter(protocol.EncodeWakeAdvertisement(payload, a.name), AdvertisingWake, payload)
}

// Stop takes the broadcast off air.
func (a *Advertiser) Stop() error {
	a.mode = AdvertisingOff
	a.payload = [protocol.WakePayloadLen]byte{}
	if err := a.radio.StopAdvertising(); err != nil {
		return fmt.Errorf("remote: stop advertising: %w", err)
	}
	return nil
}

func (a *Advertiser) enter(adv protocol.Advertisement, mode AdvertisingMode, payload [protocol.WakePayloadLen]byte) error {
	if err := a.Stop(); err != nil {
		// A failed stop usually means nothing was on air; carry on.
		slog.Warn("[ADV] stop before switch failed", "error", err)
	}
	sleep(a.clock, a.settle)

	if err := a.radio.StartAdvertising(adv); err != nil {
		return fmt.Errorf("remote: start %s advertising: %w", mode, err)
	}
	a.mode = mode
	a.payload = payload
	return nil
}
