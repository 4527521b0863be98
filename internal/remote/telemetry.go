package remote

import (
	"log/slog"

	"github.com/chaz8081/camremote/internal/ble"
	"github.com/chaz8081/camremote/internal/ble/protocol"
)

// FrameObserver is an optional Notifier extension that sees every inbound
// frame classification, including heartbeats and noise.
type FrameObserver interface {
	ObserveFrame(kind protocol.FrameKind)
}

func (c *Controller) handleFrame(ev ble.FrameReceived) {
	f := protocol.ClassifyInboundFrame(ev.Data)
	if o, ok := c.notifier.(FrameObserver); ok {
		o.ObserveFrame(f.Kind)
	}

	switch f.Kind {
	case protocol.FrameHeartbeat:
		slog.Debug("[RX] heartbeat")
	case protocol.FrameModeStatus:
		mode := protocol.MapModeCode(f.Code)
		slog.Debug("[RX] mode status", "code", protocol.HexString(f.Code[:]), "mode", mode)
		c.setMode(mode)
	default:
		slog.Debug("[RX] unrecognized frame", "len", len(ev.Data), "bytes", protocol.HexString(ev.Data))
	}
}
