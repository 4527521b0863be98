package remote

import (
	"log/slog"

	"github.com/chaz8081/camremote/internal/ble"
)

func (c *Controller) handleConnect(ev ble.ConnectEvent) {
	c.st.link = LinkState{Connected: true, PeerAddress: ev.Address}

	switch {
	case c.st.phase == PairingScanning:
		slog.Info("[LINK] connected during pairing", "address", ev.Address)
		c.validate(ev.Address)
	case c.registry.Profile().Valid:
		slog.Info("[LINK] paired camera reconnected", "address", ev.Address)
		c.resetMode()
		c.notifier.Notify(ConnectionChanged{Connected: true, Kind: ConnectionKnown, Address: ev.Address})
	default:
		slog.Warn("[LINK] unknown camera connected, use pairing to add it", "address", ev.Address)
		c.notifier.Notify(ConnectionChanged{Connected: true, Kind: ConnectionUnknown, Address: ev.Address})
		c.dropLink(ev.Address)
	}
}

func (c *Controller) handleDisconnect(ev ble.DisconnectEvent) {
	if c.st.link.Connected && (ev.Address == "" || ev.Address == c.st.link.PeerAddress) {
		c.st.link = LinkState{}
		c.resetMode()
		slog.Info("[LINK] disconnected", "address", ev.Address)
		c.notifier.Notify(ConnectionChanged{Connected: false, Kind: ConnectionNone, Address: ev.Address})
	} else {
		slog.Debug("[LINK] disconnect for stale link", "address", ev.Address)
	}

	// Every link drop returns to normal advertising, ending any wake pulse.
	if c.st.wake != nil {
		c.endWake(c.st.wake, nil)
		return
	}
	if err := c.adv.EnterNormal(); err != nil {
		slog.Error("[ADV] restore after disconnect failed", "error", err)
	}
}
