package remote

import (
	"log/slog"

	"github.com/chaz8081/camremote/internal/ble/protocol"
)

// Notification is an event for the UI: PairingStarted, CandidateDetected,
// PairingResult, ConnectionChanged, ModeChanged or CommandResult.
type Notification interface {
	notification()
}

// PairingOutcome is the terminal result of a pairing session.
type PairingOutcome int

const (
	PairingPaired PairingOutcome = iota
	PairingRejected
	PairingUnidentified
	PairingTimedOut
	PairingCancelled
)

func (o PairingOutcome) String() string {
	switch o {
	case PairingPaired:
		return "paired"
	case PairingRejected:
		return "rejected"
	case PairingUnidentified:
		return "unidentified"
	case PairingTimedOut:
		return "timed_out"
	case PairingCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ConnectionKind tells the UI how a connect event was routed.
type ConnectionKind int

const (
	// ConnectionNone accompanies disconnects.
	ConnectionNone ConnectionKind = iota
	// ConnectionKnown is a silent reconnect of the paired camera.
	ConnectionKnown
	// ConnectionUnknown is a camera we have no profile for; it is dropped.
	ConnectionUnknown
	// ConnectionPairing is a link formed during a pairing session.
	ConnectionPairing
)

func (k ConnectionKind) String() string {
	switch k {
	case ConnectionKnown:
		return "known"
	case ConnectionUnknown:
		return "unknown"
	case ConnectionPairing:
		return "pairing"
	default:
		return "none"
	}
}

// PairingStarted is emitted when scanning begins.
type PairingStarted struct{}

// CandidateDetected is emitted when scanning sees a new matching camera.
type CandidateDetected struct {
	Name    string
	Address string
}

// PairingResult ends every pairing session exactly once.
type PairingResult struct {
	Outcome PairingOutcome
	Camera  string
	Err     error
}

// ConnectionChanged reports link transitions.
type ConnectionChanged struct {
	Connected bool
	Kind      ConnectionKind
	Address   string
}

// ModeChanged reports the observed camera mode.
type ModeChanged struct {
	Mode protocol.Mode
}

// CommandResult reports the outcome of a user command. Err is nil on
// success, or wraps ErrNotConnected, ErrNoCameraPaired, ErrWakeInProgress
// or a radio failure.
type CommandResult struct {
	Command protocol.Command
	Err     error
}

func (PairingStarted) notification()    {}
func (CandidateDetected) notification() {}
func (PairingResult) notification()     {}
func (ConnectionChanged) notification() {}
func (ModeChanged) notification()       {}
func (CommandResult) notification()     {}

// Notifier receives UI notifications. Notify is called from the controller
// loop and must not block.
type Notifier interface {
	Notify(n Notification)
}

// Notifiers fans a notification out to several sinks.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notification) {
	for _, s := range ns {
		s.Notify(n)
	}
}

// ObserveFrame forwards to every sink that implements FrameObserver.
func (ns Notifiers) ObserveFrame(kind protocol.FrameKind) {
	for _, s := range ns {
		if o, ok := s.(FrameObserver); ok {
			o.ObserveFrame(kind)
		}
	}
}

var _ FrameObserver = Notifiers(nil)

// LogNotifier writes notifications to slog.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	switch n := n.(type) {
	case PairingStarted:
		slog.Info("[PAIR] scanning for cameras")
	case CandidateDetected:
		slog.Info("[PAIR] found camera", "name", n.Name, "address", n.Address)
	case PairingResult:
		if n.Err != nil {
			slog.Warn("[PAIR] pairing finished", "result", n.Outcome, "camera", n.Camera, "error", n.Err)
			return
		}
		slog.Info("[PAIR] pairing finished", "result", n.Outcome, "camera", n.Camera)
	case ConnectionChanged:
		slog.Info("[LINK] connection changed", "connected", n.Connected, "kind", n.Kind, "address", n.Address)
	case ModeChanged:
		slog.Info("[RX] camera mode", "mode", n.Mode)
	case CommandResult:
		if n.Err != nil {
			slog.Warn("[TX] command failed", "command", n.Command, "error", n.Err)
			return
		}
		slog.Info("[TX] command sent", "command", n.Command)
	}
}
