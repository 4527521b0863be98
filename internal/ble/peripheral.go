//go:build linux || baremetal

package ble

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chaz8081/camremote/internal/ble/protocol"
	"tinygo.org/x/bluetooth"
)

// Peripheral wraps tinygo-org/bluetooth in the peripheral role.
type Peripheral struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement

	notifyChar bluetooth.Characteristic
	links      *links[bluetooth.Device]
	handler    Handler

	// mu guards scanning.
	mu       sync.Mutex
	scanning bool
	scanDone chan struct{}
}

// NewPeripheral creates a peripheral on the default adapter.
func NewPeripheral() *Peripheral {
	return &Peripheral{
		adapter: bluetooth.DefaultAdapter,
		links:   newLinks[bluetooth.Device](),
	}
}

// Compile-time check that Peripheral implements Radio.
var _ Radio = (*Peripheral)(nil)

func (p *Peripheral) Enable(h Handler) error {
	if err := p.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}

	p.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		addr := device.Address.String()
		if connected {
			p.links.add(addr, device)
			h.HandleEvent(ConnectEvent{Address: addr})
			return
		}
		p.links.remove(addr)
		h.HandleEvent(DisconnectEvent{Address: addr})
	})

	svcUUID, err := bluetooth.ParseUUID(protocol.ServiceUUID)
	if err != nil {
		return fmt.Errorf("ble: parse service UUID: %w", err)
	}
	notifyUUID, err := bluetooth.ParseUUID(protocol.NotifyCharUUID)
	if err != nil {
		return fmt.Errorf("ble: parse notify UUID: %w", err)
	}
	writeUUID, err := bluetooth.ParseUUID(protocol.WriteCharUUID)
	if err != nil {
		return fmt.Errorf("ble: parse write UUID: %w", err)
	}

	err = p.adapter.AddService(&bluetooth.Service{
		UUID: svcUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &p.notifyChar,
				UUID:   notifyUUID,
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			},
			{
				UUID:  writeUUID,
				Flags: bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					// The stack reuses its buffer after the callback returns.
					h.HandleEvent(FrameReceived{Data: bytes.Clone(value)})
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ble: add service: %w", err)
	}

	p.adv = p.adapter.DefaultAdvertisement()
	p.handler = h
	return nil
}

func (p *Peripheral) StartScan() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scanning {
		return nil
	}
	p.scanning = true
	done := make(chan struct{})
	p.scanDone = done
	h := p.handler

	// Scan blocks until StopScan.
	go func() {
		defer close(done)
		err := p.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			name := result.LocalName()
			if name == "" {
				return
			}
			h.HandleEvent(AdvertisementSeen{
				Name:    name,
				Address: result.Address.String(),
				RSSI:    int(result.RSSI),
			})
		})
		if err != nil {
			slog.Warn("[BLE] scan ended with error", "error", err)
		}
		p.mu.Lock()
		if p.scanDone == done {
			p.scanning = false
		}
		p.mu.Unlock()
	}()
	return nil
}

func (p *Peripheral) StopScan() error {
	p.mu.Lock()
	if !p.scanning {
		p.mu.Unlock()
		return nil
	}
	done := p.scanDone
	p.mu.Unlock()

	if err := stopScanning(p.adapter.StopScan, done, stopScanInterval, stopScanAttempts); err != nil {
		// Let the next StartScan start a fresh scan.
		p.mu.Lock()
		if p.scanDone == done {
			p.scanning = false
		}
		p.mu.Unlock()
		return fmt.Errorf("ble: stop scan: %w", err)
	}
	return nil
}

func (p *Peripheral) StartAdvertising(adv protocol.Advertisement) error {
	if p.adv == nil {
		return errors.New("ble: adapter not enabled")
	}
	opts := bluetooth.AdvertisementOptions{
		LocalName: adv.LocalName,
	}
	for _, s := range adv.ServiceUUIDs {
		u, err := bluetooth.ParseUUID(s)
		if err != nil {
			return fmt.Errorf("ble: parse advertised UUID: %w", err)
		}
		opts.ServiceUUIDs = append(opts.ServiceUUIDs, u)
	}
	if len(adv.ManufacturerData) >= 2 {
		// The stack takes the company id separately from the rest of the block.
		opts.ManufacturerData = []bluetooth.ManufacturerDataElement{{
			CompanyID: binary.LittleEndian.Uint16(adv.ManufacturerData[0:2]),
			Data:      adv.ManufacturerData[2:],
		}}
	}
	if err := p.adv.Configure(opts); err != nil {
		return fmt.Errorf("ble: configure advertisement: %w", err)
	}
	if err := p.adv.Start(); err != nil {
		return fmt.Errorf("ble: start advertisement: %w", err)
	}
	return nil
}

func (p *Peripheral) StopAdvertising() error {
	if p.adv == nil {
		return nil
	}
	if err := p.adv.Stop(); err != nil {
		return fmt.Errorf("ble: stop advertisement: %w", err)
	}
	return nil
}

func (p *Peripheral) Notify(data []byte) error {
	if _, err := p.notifyChar.Write(data); err != nil {
		return fmt.Errorf("ble: notify: %w", err)
	}
	return nil
}

func (p *Peripheral) Disconnect(address string) error {
	dev, ok := p.links.get(address)
	if !ok {
		return fmt.Errorf("ble: no link to %s", address)
	}
	if err := dev.Disconnect(); err != nil {
		return fmt.Errorf("ble: disconnect %s: %w", address, err)
	}
	return nil
}

func (p *Peripheral) ConnectedCount() int {
	return p.links.count()
}
