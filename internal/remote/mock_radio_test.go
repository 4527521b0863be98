package remote

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/chaz8081/camremote/internal/ble"
	"github.com/chaz8081/camremote/internal/ble/protocol"
)

// mockRadio implements ble.Radio for testing. Calls are recorded in order.
type mockRadio struct {
	mu sync.Mutex

	handler     ble.Handler
	calls       []string
	scanning    bool
	advertising bool
	adv         protocol.Advertisement
	notified    [][]byte
	dropped     []string
	links       map[string]bool

	enableErr  error
	scanErr    error
	advErr     error
	advWakeErr error
	notifyErr  error
}

var _ ble.Radio = (*mockRadio)(nil)

func newMockRadio() *mockRadio {
	return &mockRadio{links: make(map[string]bool)}
}

func (m *mockRadio) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *mockRadio) Enable(h ble.Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("enable")
	if m.enableErr != nil {
		return m.enableErr
	}
	m.handler = h
	return nil
}

func (m *mockRadio) StartScan() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("scan")
	if m.scanErr != nil {
		return m.scanErr
	}
	m.scanning = true
	return nil
}

func (m *mockRadio) StopScan() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("stop-scan")
	m.scanning = false
	return nil
}

func (m *mockRadio) StartAdvertising(adv protocol.Advertisement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.advertising {
		// Starting over a live broadcast is undefined on real stacks.
		m.record("start-adv-while-active")
	}
	kind := "normal"
	if adv.IsWake() {
		kind = "wake"
	}
	m.record("start-adv:" + kind)
	if kind == "wake" && m.advWakeErr != nil {
		return m.advWakeErr
	}
	if m.advErr != nil {
		return m.advErr
	}
	m.advertising = true
	m.adv = adv
	return nil
}

func (m *mockRadio) StopAdvertising() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("stop-adv")
	m.advertising = false
	return nil
}

func (m *mockRadio) Notify(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("notify")
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.notified = append(m.notified, bytes.Clone(data))
	return nil
}

// Disconnect drops the link and, like a real stack, reports the drop through
// the event handler.
func (m *mockRadio) Disconnect(address string) error {
	m.mu.Lock()
	m.record("disconnect:" + address)
	if !m.links[address] {
		m.mu.Unlock()
		return errors.New("mock: not connected")
	}
	delete(m.links, address)
	m.dropped = append(m.dropped, address)
	h := m.handler
	m.mu.Unlock()

	if h != nil {
		h.HandleEvent(ble.DisconnectEvent{Address: address})
	}
	return nil
}

func (m *mockRadio) ConnectedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}

// connect simulates a camera connecting.
func (m *mockRadio) connect(address string) {
	m.mu.Lock()
	m.links[address] = true
	h := m.handler
	m.mu.Unlock()
	h.HandleEvent(ble.ConnectEvent{Address: address})
}

// disconnect simulates the camera dropping the link.
func (m *mockRadio) disconnect(address string) {
	m.mu.Lock()
	delete(m.links, address)
	h := m.handler
	m.mu.Unlock()
	h.HandleEvent(ble.DisconnectEvent{Address: address})
}

func (m *mockRadio) emit(ev ble.Event) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	h.HandleEvent(ev)
}

func (m *mockRadio) state() (scanning, advertising bool, adv protocol.Advertisement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanning, m.advertising, m.adv
}

func (m *mockRadio) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockRadio) resetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *mockRadio) sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.notified...)
}

func (m *mockRadio) droppedLinks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dropped...)
}

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	fired  []*fakeTimer
}

var _ Clock = (*fakeClock)(nil)

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clock: f, when: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves time forward and fires every due timer.
func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	var pending []*fakeTimer
	for _, t := range f.timers {
		if t.stopped {
			continue
		}
		if !t.when.After(f.now) {
			t.fired = true
			t.ch <- f.now
			f.fired = append(f.fired, t)
			continue
		}
		pending = append(pending, t)
	}
	f.timers = pending
}

// firedPending reports whether a fired timer has not been received yet.
func (f *fakeClock) firedPending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.fired {
		if !t.stopped && len(t.ch) > 0 {
			return true
		}
	}
	return false
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	ch      chan time.Time
	stopped bool
	fired   bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	select {
	case <-t.ch:
	default:
	}
	return wasActive
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Notification
}

var _ Notifier = (*recordingNotifier)(nil)

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.events...)
}

func (r *recordingNotifier) pairingResults() []PairingResult {
	var out []PairingResult
	for _, n := range r.all() {
		if pr, ok := n.(PairingResult); ok {
			out = append(out, pr)
		}
	}
	return out
}

func (r *recordingNotifier) connections() []ConnectionChanged {
	var out []ConnectionChanged
	for _, n := range r.all() {
		if cc, ok := n.(ConnectionChanged); ok {
			out = append(out, cc)
		}
	}
	return out
}

func (r *recordingNotifier) commandResults() []CommandResult {
	var out []CommandResult
	for _, n := range r.all() {
		if cr, ok := n.(CommandResult); ok {
			out = append(out, cr)
		}
	}
	return out
}

func (r *recordingNotifier) modes() []protocol.Mode {
	var out []protocol.Mode
	for _, n := range r.all() {
		if mc, ok := n.(ModeChanged); ok {
			out = append(out, mc.Mode)
		}
	}
	return out
}
