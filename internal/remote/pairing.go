package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chaz8081/camremote/internal/ble"
	"github.com/chaz8081/camremote/internal/ble/protocol"
)

// StartPairing clears the paired camera and begins a scan session. The
// session ends with exactly one PairingResult notification. Calling it while
// a session is already scanning is a no-op.
func (c *Controller) StartPairing(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := c.do(ctx, func() { reply <- c.startPairing() }); err != nil {
		return err
	}
	return <-reply
}

// CancelPairing ends a scanning session with PairingCancelled. It is a no-op
// when no session is active.
func (c *Controller) CancelPairing(ctx context.Context) error {
	return c.do(ctx, func() {
		if c.st.phase != PairingScanning {
			slog.Debug("[PAIR] cancel ignored, not scanning")
			return
		}
		c.endPairing(PairingCancelled, c.st.candidate.Name, nil)
	})
}

func (c *Controller) startPairing() error {
	if c.st.phase == PairingScanning {
		slog.Debug("[PAIR] already scanning")
		return nil
	}

	if c.st.wake != nil {
		c.endWake(c.st.wake, nil)
	}
	if c.st.link.Connected {
		// Scanning and an active link must not overlap.
		slog.Info("[PAIR] dropping current link before pairing", "address", c.st.link.PeerAddress)
		if err := c.radio.Disconnect(c.st.link.PeerAddress); err != nil {
			slog.Warn("[PAIR] disconnect failed", "error", err)
		}
		c.st.link = LinkState{}
		c.notifier.Notify(ConnectionChanged{Connected: false, Kind: ConnectionNone})
	}

	if err := c.registry.Clear(); err != nil {
		slog.Warn("[PAIR] clear saved camera", "error", err)
	}
	c.st.candidate = Candidate{}
	c.resetMode()

	if mode, _ := c.adv.Mode(); mode != AdvertisingNormal {
		if err := c.adv.EnterNormal(); err != nil {
			slog.Warn("[PAIR] restore normal advertising", "error", err)
		}
	}

	if err := c.radio.StartScan(); err != nil {
		return fmt.Errorf("remote: start scan: %w", err)
	}
	c.st.phase = PairingScanning
	c.st.deadline = c.opts.Clock.NewTimer(c.opts.PairingTimeout)
	slog.Info("[PAIR] pairing started", "timeout", c.opts.PairingTimeout)
	c.notifier.Notify(PairingStarted{})
	return nil
}

func (c *Controller) handleAdvertisement(ev ble.AdvertisementSeen) {
	if c.st.phase != PairingScanning || !protocol.IsCameraName(ev.Name) {
		return
	}
	if c.st.candidate.Name == ev.Name && c.st.candidate.Address == ev.Address {
		return
	}
	c.st.candidate = Candidate{Name: ev.Name, Address: ev.Address}
	slog.Debug("[PAIR] candidate", "name", ev.Name, "address", ev.Address, "rssi", ev.RSSI)
	c.notifier.Notify(CandidateDetected{Name: ev.Name, Address: ev.Address})
}

// validate runs when a link forms during a scan. The caller has already
// recorded the link.
func (c *Controller) validate(address string) {
	c.stopScan()
	c.st.phase = PairingValidating
	c.notifier.Notify(ConnectionChanged{Connected: true, Kind: ConnectionPairing, Address: address})

	cand := c.st.candidate
	c.st.candidate = Candidate{}

	if cand.Name == "" {
		c.dropLink(address)
		c.finishPairing(PairingUnidentified, "", nil)
		return
	}
	if !protocol.ValidCameraName(cand.Name) {
		c.dropLink(address)
		c.finishPairing(PairingRejected, cand.Name, nil)
		return
	}
	if _, err := c.registry.Save(cand.Name, address); err != nil {
		c.dropLink(address)
		c.finishPairing(PairingRejected, cand.Name, err)
		return
	}
	c.finishPairing(PairingPaired, cand.Name, nil)
}

func (c *Controller) pairingTimedOut() {
	if c.st.phase != PairingScanning {
		return
	}
	c.endPairing(PairingTimedOut, "", nil)
}

// endPairing stops an active scan and reports outcome.
func (c *Controller) endPairing(outcome PairingOutcome, camera string, err error) {
	c.stopScan()
	c.st.candidate = Candidate{}
	if mode, _ := c.adv.Mode(); mode != AdvertisingNormal && c.st.wake == nil {
		if err := c.adv.EnterNormal(); err != nil {
			slog.Warn("[PAIR] restore normal advertising", "error", err)
		}
	}
	c.finishPairing(outcome, camera, err)
}

func (c *Controller) finishPairing(outcome PairingOutcome, camera string, err error) {
	c.st.phase = PairingIdle
	c.notifier.Notify(PairingResult{Outcome: outcome, Camera: camera, Err: err})
}

func (c *Controller) stopScan() {
	if c.st.deadline != nil {
		c.st.deadline.Stop()
		c.st.deadline = nil
	}
	if err := c.radio.StopScan(); err != nil {
		slog.Warn("[PAIR] stop scan", "error", err)
	}
}

func (c *Controller) dropLink(address string) {
	if err := c.radio.Disconnect(address); err != nil {
		slog.Warn("[LINK] force disconnect failed", "address", address, "error", err)
	}
}
