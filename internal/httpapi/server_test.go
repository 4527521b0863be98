package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chaz8081/camremote/internal/ble/protocol"
	"github.com/chaz8081/camremote/internal/config"
	"github.com/chaz8081/camremote/internal/registry"
	"github.com/chaz8081/camremote/internal/remote"
)

// mockRemote implements Remote for testing.
type mockRemote struct {
	mu      sync.Mutex
	status  remote.Status
	sent    []protocol.Command
	sendErr error
	pairErr error
	delay   time.Duration
}

var _ Remote = (*mockRemote)(nil)

func (m *mockRemote) StartPairing(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pairErr != nil {
		return m.pairErr
	}
	m.status.Pairing = remote.PairingScanning
	return nil
}

func (m *mockRemote) CancelPairing(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Pairing = remote.PairingIdle
	return nil
}

func (m *mockRemote) Send(_ context.Context, cmd protocol.Command) error {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, cmd)
	return nil
}

func (m *mockRemote) Status(context.Context) (remote.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, nil
}

func newTestServer(t *testing.T, m *mockRemote) (*httptest.Server, *Client) {
	t.Helper()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("camremote_link_connected 0\n"))
	})
	srv := httptest.NewServer(NewRouter(m, metrics))
	t.Cleanup(srv.Close)
	return srv, NewClient(strings.TrimPrefix(srv.URL, "http://"))
}

func TestStatus(t *testing.T) {
	m := &mockRemote{status: remote.Status{
		Link:        remote.LinkState{Connected: true, PeerAddress: "aa:bb:cc:dd:ee:ff"},
		Advertising: remote.AdvertisingNormal,
		Mode:        protocol.ModeVideo,
		Camera: registry.Profile{
			Name:        "X5 ABC123",
			Address:     "aa:bb:cc:dd:ee:ff",
			WakePayload: [6]byte{'A', 'B', 'C', '1', '2', '3'},
			Valid:       true,
		},
	}}
	srv, _ := newTestServer(t, m)

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !got.Connected || got.Mode != "video" || got.Advertising != "normal" || got.Pairing != "idle" {
		t.Errorf("StatusResponse = %+v", got)
	}
	if got.Camera == nil || got.Camera.Name != "X5 ABC123" || got.Camera.WakePayload != "41 42 43 31 32 33" {
		t.Errorf("Camera = %+v", got.Camera)
	}
}

func TestStatusWithoutCamera(t *testing.T) {
	_, client := newTestServer(t, &mockRemote{})
	got, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got.Camera != nil {
		t.Errorf("Camera = %+v, want nil", got.Camera)
	}
}

func TestPairingRoutes(t *testing.T) {
	m := &mockRemote{}
	_, client := newTestServer(t, m)

	got, err := client.StartPairing(context.Background())
	if err != nil {
		t.Fatalf("StartPairing() error = %v", err)
	}
	if got.Pairing != "scanning" {
		t.Errorf("Pairing = %q, want scanning", got.Pairing)
	}

	got, err = client.CancelPairing(context.Background())
	if err != nil {
		t.Fatalf("CancelPairing() error = %v", err)
	}
	if got.Pairing != "idle" {
		t.Errorf("Pairing = %q, want idle", got.Pairing)
	}
}

func TestCommandRoute(t *testing.T) {
	m := &mockRemote{}
	_, client := newTestServer(t, m)

	for _, name := range []string{"shutter", "mode", "screen", "sleep", "wake"} {
		if _, err := client.Command(context.Background(), name); err != nil {
			t.Errorf("Command(%q) error = %v", name, err)
		}
	}
	want := []protocol.Command{protocol.CommandShutter, protocol.CommandMode, protocol.CommandScreen, protocol.CommandSleep, protocol.CommandWake}
	if len(m.sent) != len(want) {
		t.Fatalf("sent = %v, want %v", m.sent, want)
	}
	for i := range want {
		if m.sent[i] != want[i] {
			t.Errorf("sent[%d] = %v, want %v", i, m.sent[i], want[i])
		}
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		command string
		err     error
		want    int
	}{
		{"unknown command", "selfie", nil, http.StatusNotFound},
		{"not connected", "shutter", remote.ErrNotConnected, http.StatusConflict},
		{"no camera", "wake", remote.ErrNoCameraPaired, http.StatusPreconditionFailed},
		{"wake in progress", "wake", remote.ErrWakeInProgress, http.StatusConflict},
		{"stopped", "mode", remote.ErrStopped, http.StatusServiceUnavailable},
		{"radio failure", "mode", errors.New("gatt busy"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newTestServer(t, &mockRemote{sendErr: tt.err})
			_, err := client.Command(context.Background(), tt.command)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Command() error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.want {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.want)
			}
			if apiErr.Message == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestStartPairingError(t *testing.T) {
	_, client := newTestServer(t, &mockRemote{pairErr: errors.New("remote: start scan: busy")})
	_, err := client.StartPairing(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StartPairing() error = %v, want 500 APIError", err)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	srv, client := newTestServer(t, &mockRemote{})
	if !client.Ping(context.Background()) {
		t.Error("Ping() = false, want true")
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics status = %d", resp.StatusCode)
	}
}

func TestPingNoDaemon(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if NewClient(addr).Ping(ctx) {
		t.Error("Ping() = true with nothing listening")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveListener(ctx, ln, NewRouter(&mockRemote{}, nil)) }()

	client := NewClient(ln.Addr().String())
	deadline := time.Now().Add(2 * time.Second)
	for !client.Ping(context.Background()) {
		if time.Now().After(deadline) {
			t.Fatal("server never answered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serveListener() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStatusCode(t *testing.T) {
	if got := StatusCode(context.DeadlineExceeded); got != http.StatusGatewayTimeout {
		t.Errorf("StatusCode(DeadlineExceeded) = %d", got)
	}
}

func TestClientOutlastsLongestWake(t *testing.T) {
	if ClientTimeout <= config.MaxWakePulse {
		t.Errorf("ClientTimeout = %s, want more than MaxWakePulse %s", ClientTimeout, config.MaxWakePulse)
	}
	if got := NewClient("127.0.0.1:1").http.GetClient().Timeout; got != ClientTimeout {
		t.Errorf("resty timeout = %s, want %s", got, ClientTimeout)
	}
}

func TestSlowWakeCompletes(t *testing.T) {
	m := &mockRemote{delay: 200 * time.Millisecond}
	_, client := newTestServer(t, m)
	if _, err := client.Command(context.Background(), "wake"); err != nil {
		t.Fatalf("Command(wake) error = %v", err)
	}
	if len(m.sent) != 1 || m.sent[0] != protocol.CommandWake {
		t.Errorf("sent = %v, want [wake]", m.sent)
	}
}
