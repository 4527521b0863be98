package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chaz8081/camremote/internal/ble/protocol"
)

// Send writes a command frame to the connected camera. CommandWake is
// delegated to Wake. Without a live link Send fails with ErrNotConnected and
// nothing is written.
func (c *Controller) Send(ctx context.Context, cmd protocol.Command) error {
	if cmd == protocol.CommandWake {
		return c.Wake(ctx)
	}
	reply := make(chan error, 1)
	if err := c.do(ctx, func() { reply <- c.send(cmd) }); err != nil {
		return err
	}
	return <-reply
}

func (c *Controller) send(cmd protocol.Command) error {
	err := c.writeCommand(cmd)
	c.notifier.Notify(CommandResult{Command: cmd, Err: err})
	return err
}

func (c *Controller) writeCommand(cmd protocol.Command) error {
	if !c.st.link.Connected || c.radio.ConnectedCount() == 0 {
		return ErrNotConnected
	}
	frame, err := protocol.CommandFrame(cmd)
	if err != nil {
		return err
	}
	if cmd == protocol.CommandMode {
		// The new mode is unknown until the camera reports it, even if the
		// write fails.
		c.resetMode()
	}
	slog.Info("[TX] sending command", "command", cmd, "bytes", protocol.HexString(frame))
	if err := c.radio.Notify(frame); err != nil {
		return fmt.Errorf("remote: send %s: %w", cmd, err)
	}
	return nil
}

// Wake broadcasts the paired camera's wake payload for the configured pulse
// and then restores normal advertising. It returns when the pulse ends. No
// connection is needed. Cancelling ctx ends the pulse early.
func (c *Controller) Wake(ctx context.Context) error {
	type started struct {
		pulse *wakePulse
		err   error
	}
	start := make(chan started, 1)
	if err := c.do(ctx, func() {
		p, err := c.startWake()
		start <- started{p, err}
	}); err != nil {
		return err
	}
	s := <-start
	if s.err != nil {
		return s.err
	}

	select {
	case err := <-s.pulse.reply:
		return err
	case <-ctx.Done():
		// End the pulse; if the loop already stopped, shutdown restored it.
		_ = c.do(context.Background(), func() { c.endWake(s.pulse, ctx.Err()) })
		return ctx.Err()
	}
}

func (c *Controller) startWake() (*wakePulse, error) {
	if c.st.wake != nil {
		c.notifier.Notify(CommandResult{Command: protocol.CommandWake, Err: ErrWakeInProgress})
		return nil, ErrWakeInProgress
	}
	profile := c.registry.Profile()
	if !profile.Valid {
		c.notifier.Notify(CommandResult{Command: protocol.CommandWake, Err: ErrNoCameraPaired})
		return nil, ErrNoCameraPaired
	}

	slog.Info("[WAKE] pulsing wake advertisement", "camera", profile.Name, "duration", c.opts.WakePulse)
	if err := c.adv.EnterWake(profile.WakePayload); err != nil {
		if nerr := c.adv.EnterNormal(); nerr != nil {
			slog.Error("[ADV] restore after failed wake", "error", nerr)
		}
		err = fmt.Errorf("remote: wake: %w", err)
		c.notifier.Notify(CommandResult{Command: protocol.CommandWake, Err: err})
		return nil, err
	}

	p := &wakePulse{
		timer: c.opts.Clock.NewTimer(c.opts.WakePulse),
		reply: make(chan error, 1),
	}
	c.st.wake = p
	return p, nil
}

// endWake ends pulse p, restores normal advertising and answers the waiting
// caller with err. A pulse that already ended is ignored.
func (c *Controller) endWake(p *wakePulse, err error) {
	if p == nil || c.st.wake != p {
		return
	}
	p.timer.Stop()
	c.st.wake = nil

	if nerr := c.adv.EnterNormal(); nerr != nil {
		slog.Error("[ADV] restore after wake failed", "error", nerr)
	}
	slog.Info("[WAKE] pulse finished")
	c.notifier.Notify(CommandResult{Command: protocol.CommandWake, Err: err})
	p.reply <- err
}
