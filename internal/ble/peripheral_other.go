//go:build !linux && !baremetal

package ble

import (
	"errors"

	"github.com/chaz8081/camremote/internal/ble/protocol"
)

// ErrUnsupported is returned on platforms where the stack has no
// peripheral role.
var ErrUnsupported = errors.New("ble: peripheral role not supported on this platform")

// Peripheral is unavailable on this platform; every operation fails.
type Peripheral struct{}

// NewPeripheral returns a Peripheral whose Enable fails with ErrUnsupported.
func NewPeripheral() *Peripheral { return &Peripheral{} }

var _ Radio = (*Peripheral)(nil)

func (p *Peripheral) Enable(Handler) error                          { return ErrUnsupported }
func (p *Peripheral) StartScan() error                              { return ErrUnsupported }
func (p *Peripheral) StopScan() error                               { return nil }
func (p *Peripheral) StartAdvertising(protocol.Advertisement) error { return ErrUnsupported }
func (p *Peripheral) StopAdvertising() error                        { return nil }
func (p *Peripheral) Notify([]byte) error                           { return ErrUnsupported }
func (p *Peripheral) Disconnect(string) error                       { return ErrUnsupported }
func (p *Peripheral) ConnectedCount() int                           { return 0 }
