// Package metrics exports remote activity as Prometheus metrics. It plugs
// into the controller as a notification sink.
package metrics

import (
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chaz8081/camremote/internal/ble/protocol"
	"github.com/chaz8081/camremote/internal/remote"
)

const namespace = "camremote"

// Metrics holds the remote's collectors in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	commands    *prometheus.CounterVec
	pairing     *prometheus.CounterVec
	connections *prometheus.CounterVec
	frames      *prometheus.CounterVec
	connected   prometheus.Gauge
	mode        *prometheus.GaugeVec
}

var (
	_ remote.Notifier      = (*Metrics)(nil)
	_ remote.FrameObserver = (*Metrics)(nil)
)

var modes = []protocol.Mode{
	protocol.ModeUnknown,
	protocol.ModeCamera,
	protocol.ModeVideo,
	protocol.ModeTimeshift,
	protocol.ModeLoopRecording,
	protocol.ModeUnhandled,
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "User commands by command and result.",
		}, []string{"command", "result"}),
		pairing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairing_results_total",
			Help:      "Finished pairing sessions by outcome.",
		}, []string{"result"}),
		connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Camera connections by routing kind.",
		}, []string{"kind"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Inbound frames by classification.",
		}, []string{"kind"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_connected",
			Help:      "1 while a camera link is up.",
		}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "camera_mode",
			Help:      "1 for the last observed camera mode.",
		}, []string{"mode"}),
	}
	m.registry.MustRegister(m.commands, m.pairing, m.connections, m.frames, m.connected, m.mode)
	m.setMode(protocol.ModeUnknown)
	return m
}

// Registry exposes the registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	})
}

// Notify records a controller notification.
func (m *Metrics) Notify(n remote.Notification) {
	switch n := n.(type) {
	case remote.PairingResult:
		m.pairing.WithLabelValues(n.Outcome.String()).Inc()
	case remote.ConnectionChanged:
		if n.Connected {
			m.connections.WithLabelValues(n.Kind.String()).Inc()
			m.connected.Set(1)
		} else {
			m.connected.Set(0)
		}
	case remote.ModeChanged:
		m.setMode(n.Mode)
	case remote.CommandResult:
		m.commands.WithLabelValues(n.Command.String(), result(n.Err)).Inc()
	}
}

// ObserveFrame counts an inbound frame.
func (m *Metrics) ObserveFrame(kind protocol.FrameKind) {
	m.frames.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) setMode(current protocol.Mode) {
	for _, md := range modes {
		v := 0.0
		if md == current {
			v = 1
		}
		m.mode.WithLabelValues(md.String()).Set(v)
	}
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, remote.ErrNotConnected):
		return "not_connected"
	case errors.Is(err, remote.ErrNoCameraPaired):
		return "no_camera_paired"
	case errors.Is(err, remote.ErrWakeInProgress):
		return "wake_in_progress"
	case errors.Is(err, remote.ErrStopped):
		return "stopped"
	default:
		return "error"
	}
}
