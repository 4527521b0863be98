// Package remote implements the camera remote's core: the pairing state
// machine, link routing, advertising control, telemetry decoding and command
// dispatch.
//
// All mutable state lives in one Controller and is touched only by its Run
// loop. Radio callbacks enter through HandleEvent, which queues the event;
// user requests are queued the same way and answered over reply channels.
// Deadlines (pairing timeout, wake pulse) are loop-owned timers on an
// injectable Clock.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaz8081/camremote/internal/ble"
	"github.com/chaz8081/camremote/internal/ble/protocol"
	"github.com/chaz8081/camremote/internal/registry"
)

var (
	// ErrNotConnected is returned when a command needs a live link.
	ErrNotConnected = errors.New("remote: not connected")
	// ErrNoCameraPaired is returned by Wake without a valid profile.
	ErrNoCameraPaired = errors.New("remote: no camera paired")
	// ErrWakeInProgress is returned by Wake while a pulse is on air.
	ErrWakeInProgress = errors.New("remote: wake pulse in progress")
	// ErrStopped is returned once the controller loop has exited.
	ErrStopped = errors.New("remote: controller stopped")
)

// Options configures the controller.
type Options struct {
	Name            string        // broadcast name
	PairingTimeout  time.Duration // scan deadline
	WakePulse       time.Duration // wake broadcast duration
	AdvertiseSettle time.Duration // wait after stopping a broadcast
	QueueSize       int           // radio event queue capacity
	Clock           Clock
}

// DefaultOptions returns the production timings.
func DefaultOptions() Options {
	return Options{
		Name:            protocol.BroadcastName("Insta360 GPS Remote", "A1B2"),
		PairingTimeout:  30 * time.Second,
		WakePulse:       3 * time.Second,
		AdvertiseSettle: 100 * time.Millisecond,
		QueueSize:       64,
		Clock:           SystemClock{},
	}
}

// PairingPhase is the state of the pairing state machine.
type PairingPhase int

const (
	PairingIdle PairingPhase = iota
	PairingScanning
	PairingValidating
)

func (p PairingPhase) String() string {
	switch p {
	case PairingScanning:
		return "scanning"
	case PairingValidating:
		return "validating"
	default:
		return "idle"
	}
}

// LinkState is the live connection. Connected == false implies an empty
// PeerAddress.
type LinkState struct {
	Connected   bool
	PeerAddress string
}

// Candidate is the most recent matching camera seen while scanning.
type Candidate struct {
	Name    string
	Address string
}

// Status is a snapshot of the controller state.
type Status struct {
	Link        LinkState
	Pairing     PairingPhase
	Candidate   Candidate
	Advertising AdvertisingMode
	Waking      bool
	Mode        protocol.Mode
	Camera      registry.Profile
}

type wakePulse struct {
	timer Timer
	reply chan error
}

// state is owned by the Run loop.
type state struct {
	link      LinkState
	mode      protocol.Mode
	phase     PairingPhase
	candidate Candidate
	deadline  Timer
	wake      *wakePulse
}

// Controller is the remote's core.
type Controller struct {
	radio    ble.Radio
	registry *registry.Registry
	notifier Notifier
	opts     Options
	adv      *Advertiser

	events   chan ble.Event
	requests chan func()
	done     chan struct{}

	st state
}

// New creates a controller. Zero option fields take DefaultOptions values.
func New(radio ble.Radio, reg *registry.Registry, notifier Notifier, opts Options) *Controller {
	def := DefaultOptions()
	if opts.Name == "" {
		opts.Name = def.Name
	}
	if opts.PairingTimeout <= 0 {
		opts.PairingTimeout = def.PairingTimeout
	}
	if opts.WakePulse <= 0 {
		opts.WakePulse = def.WakePulse
	}
	if opts.AdvertiseSettle < 0 {
		opts.AdvertiseSettle = 0
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.Clock == nil {
		opts.Clock = def.Clock
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Controller{
		radio:    radio,
		registry: reg,
		notifier: notifier,
		opts:     opts,
		adv:      NewAdvertiser(radio, opts.Clock, opts.Name, opts.AdvertiseSettle),
		events:   make(chan ble.Event, opts.QueueSize),
		requests: make(chan func()),
		done:     make(chan struct{}),
	}
}

// Compile-time check that Controller can receive radio events.
var _ ble.Handler = (*Controller)(nil)

// HandleEvent queues a radio event for the loop. It is called on the radio
// stack's callback context. Link events wait for room in the queue; scan
// results and frames are dropped when it is full.
func (c *Controller) HandleEvent(ev ble.Event) {
	switch ev.(type) {
	case ble.ConnectEvent, ble.DisconnectEvent:
		select {
		case c.events <- ev:
		case <-c.done:
		}
	default:
		select {
		case c.events <- ev:
		case <-c.done:
		default:
			slog.Warn("[BLE] event queue full, dropping event", "event", fmt.Sprintf("%T", ev))
		}
	}
}

// Run enables the radio, loads the paired camera, starts normal advertising
// and processes events until ctx is cancelled. On exit it stops scanning and
// restores normal advertising.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	if err := c.radio.Enable(c); err != nil {
		return fmt.Errorf("remote: enable radio: %w", err)
	}
	c.registry.Load()
	if err := c.adv.EnterNormal(); err != nil {
		slog.Error("[ADV] initial advertising failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case ev := <-c.events:
			c.dispatch(ev)
		case fn := <-c.requests:
			fn()
		case <-timerC(c.st.deadline):
			c.pairingTimedOut()
		case <-c.wakeC():
			c.endWake(c.st.wake, nil)
		}
	}
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) dispatch(ev ble.Event) {
	switch ev := ev.(type) {
	case ble.ConnectEvent:
		c.handleConnect(ev)
	case ble.DisconnectEvent:
		c.handleDisconnect(ev)
	case ble.AdvertisementSeen:
		c.handleAdvertisement(ev)
	case ble.FrameReceived:
		c.handleFrame(ev)
	}
}

func (c *Controller) shutdown() {
	if c.st.phase == PairingScanning {
		c.endPairing(PairingCancelled, "", context.Canceled)
	}
	if c.st.wake != nil {
		c.endWake(c.st.wake, ErrStopped)
	} else if mode, _ := c.adv.Mode(); mode != AdvertisingNormal {
		if err := c.adv.EnterNormal(); err != nil {
			slog.Warn("[ADV] restore on shutdown failed", "error", err)
		}
	}
	slog.Info("[BLE] controller stopped")
}

// do runs fn on the loop.
func (c *Controller) do(ctx context.Context, fn func()) error {
	select {
	case c.requests <- fn:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	var s Status
	err := c.do(ctx, func() {
		mode, _ := c.adv.Mode()
		s = Status{
			Link:        c.st.link,
			Pairing:     c.st.phase,
			Candidate:   c.st.candidate,
			Advertising: mode,
			Waking:      c.st.wake != nil,
			Mode:        c.st.mode,
			Camera:      c.registry.Profile(),
		}
	})
	return s, err
}

func (c *Controller) setMode(m protocol.Mode) {
	c.st.mode = m
	c.notifier.Notify(ModeChanged{Mode: m})
}

// resetMode forgets the observed mode, notifying only on change.
func (c *Controller) resetMode() {
	if c.st.mode == protocol.ModeUnknown {
		return
	}
	c.setMode(protocol.ModeUnknown)
}

func (c *Controller) wakeC() <-chan time.Time {
	if c.st.wake == nil {
		return nil
	}
	return c.st.wake.timer.C()
}

func timerC(t Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}
