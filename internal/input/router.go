package input

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaz8081/camremote/internal/ble/protocol"
	"github.com/chaz8081/camremote/internal/hotkey"
	"github.com/chaz8081/camremote/internal/remote"
)

// Remote is the subset of the controller the router drives.
type Remote interface {
	StartPairing(ctx context.Context) error
	CancelPairing(ctx context.Context) error
	Send(ctx context.Context, cmd protocol.Command) error
	Wake(ctx context.Context) error
	Status(ctx context.Context) (remote.Status, error)
}

var _ Remote = (*remote.Controller)(nil)

// Options configures the router.
type Options struct {
	// StartupDelay ignores direct-action buttons for this long after the
	// router is created.
	StartupDelay time.Duration
	// ActionDelay is waited before executing a direct action.
	ActionDelay time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Router maps button events onto the remote. Presses are handled one at a
// time: a wake pulse holds the router until it ends.
type Router struct {
	remote  Remote
	opts    Options
	menu    Menu
	started time.Time
	armed   bool
}

// NewRouter creates a router and starts its startup grace period.
func NewRouter(r Remote, opts Options) *Router {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Router{remote: r, opts: opts, started: opts.Now()}
}

// Selected returns the current menu entry.
func (r *Router) Selected() Entry { return r.menu.Selected() }

// Run handles events until ctx is cancelled or events is closed.
func (r *Router) Run(ctx context.Context, events <-chan hotkey.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				slog.Info("[INPUT] button source closed")
				return
			}
			if err := r.Handle(ctx, ev); err != nil {
				slog.Warn("[INPUT] action failed", "button", ev.Button, "error", err)
			}
		}
	}
}

// Handle executes a single button press.
func (r *Router) Handle(ctx context.Context, ev hotkey.Event) error {
	switch ev.Button {
	case hotkey.ButtonNext:
		return r.next(ctx)
	case hotkey.ButtonRun:
		return r.run(ctx, r.menu.Selected())
	case hotkey.ButtonShutter:
		return r.direct(ctx, EntryShutter)
	case hotkey.ButtonSleep:
		return r.direct(ctx, EntrySleep)
	case hotkey.ButtonWake:
		return r.direct(ctx, EntryWake)
	default:
		return fmt.Errorf("input: unknown button %v", ev.Button)
	}
}

// next cycles the menu, or cancels pairing while a scan is running.
func (r *Router) next(ctx context.Context) error {
	st, err := r.remote.Status(ctx)
	if err != nil {
		return err
	}
	if st.Pairing == remote.PairingScanning {
		slog.Info("[INPUT] cancelling pairing")
		return r.remote.CancelPairing(ctx)
	}
	e := r.menu.Next()
	slog.Debug("[INPUT] menu", "entry", e)
	return nil
}

func (r *Router) run(ctx context.Context, e Entry) error {
	slog.Info("[INPUT] run", "entry", e)
	if e == EntryConnect {
		return r.remote.StartPairing(ctx)
	}
	cmd, _ := e.Command()
	if cmd == protocol.CommandWake {
		return r.remote.Wake(ctx)
	}
	return r.remote.Send(ctx, cmd)
}

// direct runs a dedicated-button action after the startup grace period and
// the configured per-press delay.
func (r *Router) direct(ctx context.Context, e Entry) error {
	if !r.armed {
		if r.opts.Now().Sub(r.started) < r.opts.StartupDelay {
			slog.Debug("[INPUT] direct input ignored during startup", "entry", e)
			return nil
		}
		r.armed = true
		slog.Info("[INPUT] direct inputs active")
	}

	if d := r.opts.ActionDelay; d > 0 {
		slog.Debug("[INPUT] delaying action", "entry", e, "delay", d)
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return r.run(ctx, e)
}
