package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chaz8081/camremote/internal/ble/protocol"
	"github.com/chaz8081/camremote/internal/hotkey"
	"github.com/chaz8081/camremote/internal/remote"
)

// mockRemote records the operations the router invokes.
type mockRemote struct {
	phase   remote.PairingPhase
	calls   []string
	sendErr error
}

var _ Remote = (*mockRemote)(nil)

func (m *mockRemote) StartPairing(context.Context) error {
	m.calls = append(m.calls, "pair")
	m.phase = remote.PairingScanning
	return nil
}

func (m *mockRemote) CancelPairing(context.Context) error {
	m.calls = append(m.calls, "cancel")
	m.phase = remote.PairingIdle
	return nil
}

func (m *mockRemote) Send(_ context.Context, cmd protocol.Command) error {
	m.calls = append(m.calls, cmd.String())
	return m.sendErr
}

func (m *mockRemote) Wake(context.Context) error {
	m.calls = append(m.calls, "wake")
	return nil
}

func (m *mockRemote) Status(context.Context) (remote.Status, error) {
	return remote.Status{Pairing: m.phase}, nil
}

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }

func press(t *testing.T, r *Router, b hotkey.Button) {
	t.Helper()
	if err := r.Handle(context.Background(), hotkey.Event{Button: b}); err != nil {
		t.Fatalf("Handle(%v) error = %v", b, err)
	}
}

func TestMenuWraps(t *testing.T) {
	var m Menu
	want := []Entry{EntryShutter, EntryMode, EntryScreen, EntrySleep, EntryWake, EntryConnect}
	for i, w := range want {
		if got := m.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}
}

func TestEntryCommand(t *testing.T) {
	if _, ok := EntryConnect.Command(); ok {
		t.Error("Connect should have no command")
	}
	if cmd, ok := EntryScreen.Command(); !ok || cmd != protocol.CommandScreen {
		t.Errorf("Screen.Command() = %v %v", cmd, ok)
	}
}

func TestRunExecutesSelectedEntry(t *testing.T) {
	m := &mockRemote{}
	r := NewRouter(m, Options{})

	// CONNECT, then cancel via next.
	press(t, r, hotkey.ButtonRun)
	press(t, r, hotkey.ButtonNext)
	if r.Selected() != EntryConnect {
		t.Errorf("next during pairing moved the menu to %v", r.Selected())
	}

	for i := 0; i < 5; i++ {
		press(t, r, hotkey.ButtonNext)
		press(t, r, hotkey.ButtonRun)
	}

	want := []string{"pair", "cancel", "shutter", "mode", "screen", "sleep", "wake"}
	if len(m.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", m.calls, want)
	}
	for i := range want {
		if m.calls[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, m.calls[i], want[i])
		}
	}
}

func TestDirectInputsIgnoredDuringStartup(t *testing.T) {
	clock := &fakeNow{t: time.Unix(1000, 0)}
	m := &mockRemote{}
	r := NewRouter(m, Options{StartupDelay: 2 * time.Second, Now: clock.now})

	press(t, r, hotkey.ButtonShutter)
	clock.t = clock.t.Add(1999 * time.Millisecond)
	press(t, r, hotkey.ButtonWake)
	if len(m.calls) != 0 {
		t.Fatalf("calls during startup = %v, want none", m.calls)
	}

	// Menu buttons work at once.
	press(t, r, hotkey.ButtonNext)
	if r.Selected() != EntryShutter {
		t.Errorf("Selected() = %v, want SHUTTER", r.Selected())
	}

	clock.t = clock.t.Add(time.Millisecond)
	press(t, r, hotkey.ButtonShutter)
	press(t, r, hotkey.ButtonSleep)
	press(t, r, hotkey.ButtonWake)
	want := []string{"shutter", "sleep", "wake"}
	if len(m.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", m.calls, want)
	}
}

func TestDirectActionDelay(t *testing.T) {
	m := &mockRemote{}
	delay := 20 * time.Millisecond
	r := NewRouter(m, Options{ActionDelay: delay})

	start := time.Now()
	press(t, r, hotkey.ButtonShutter)
	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("action ran after %v, want at least %v", elapsed, delay)
	}
}

func TestDirectActionDelayCancelled(t *testing.T) {
	m := &mockRemote{}
	r := NewRouter(m, Options{ActionDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Handle(ctx, hotkey.Event{Button: hotkey.ButtonShutter})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Handle() error = %v, want context.Canceled", err)
	}
	if len(m.calls) != 0 {
		t.Errorf("calls = %v, want none", m.calls)
	}
}

func TestHandlePropagatesErrors(t *testing.T) {
	m := &mockRemote{sendErr: remote.ErrNotConnected}
	r := NewRouter(m, Options{})
	press(t, r, hotkey.ButtonNext)
	err := r.Handle(context.Background(), hotkey.Event{Button: hotkey.ButtonRun})
	if !errors.Is(err, remote.ErrNotConnected) {
		t.Errorf("Handle() error = %v, want ErrNotConnected", err)
	}
}

func TestRouterRunStopsOnClose(t *testing.T) {
	m := &mockRemote{}
	r := NewRouter(m, Options{})
	events := make(chan hotkey.Event, 2)
	events <- hotkey.Event{Button: hotkey.ButtonRun}
	close(events)

	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), events)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after the source closed")
	}
	if len(m.calls) != 1 || m.calls[0] != "pair" {
		t.Errorf("calls = %v, want [pair]", m.calls)
	}
}
