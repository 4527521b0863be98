// Package hotkey emulates the remote's physical buttons with global key
// combos using gohook. Each press of a bound combo emits one Event.
package hotkey

import (
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// Button identifies one of the remote's inputs.
type Button int

const (
	// ButtonNext cycles the menu, or cancels an active pairing session.
	ButtonNext Button = iota
	// ButtonRun executes the selected menu entry.
	ButtonRun
	// ButtonShutter triggers the shutter directly.
	ButtonShutter
	// ButtonSleep puts the camera to sleep directly.
	ButtonSleep
	// ButtonWake pulses the wake broadcast directly.
	ButtonWake
)

func (b Button) String() string {
	switch b {
	case ButtonNext:
		return "next"
	case ButtonRun:
		return "run"
	case ButtonShutter:
		return "shutter"
	case ButtonSleep:
		return "sleep"
	case ButtonWake:
		return "wake"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Button Button
}

// Bindings maps each button to a key combo of lowercase key names
// (e.g., ["ctrl", "alt", "s"]).
type Bindings map[Button][]string

// Listener manages the global key combos and emits button events.
type Listener struct {
	bindings Bindings
	ch       chan Event
	done     chan struct{}
	once     sync.Once
}

// NewListener creates a Listener for the given bindings. Buttons with an
// empty combo are left unbound.
func NewListener(bindings Bindings) *Listener {
	return &Listener{
		bindings: bindings,
		ch:       make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

// Events returns the channel that receives button events.
// The channel is closed when the listener stops.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Describe returns a human-readable summary of the bindings.
func (l *Listener) Describe() string {
	var parts []string
	for b := ButtonNext; b <= ButtonWake; b++ {
		if keys := l.bindings[b]; len(keys) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%s", b, strings.Join(keys, "+")))
		}
	}
	return strings.Join(parts, " ")
}

// Start begins listening for the bound combos.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	for b, keys := range l.bindings {
		if len(keys) == 0 {
			continue
		}
		button := b
		hook.Register(hook.KeyDown, keys, func(e hook.Event) {
			l.emit(button)
		})
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// emit queues a press without blocking the hook thread.
func (l *Listener) emit(b Button) {
	select {
	case l.ch <- Event{Button: b}:
	default: // don't block if channel is full
	}
}

// Stop terminates the listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
