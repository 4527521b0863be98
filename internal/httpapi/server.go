// Package httpapi serves the local control API the CLI talks to, plus the
// Prometheus scrape endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chaz8081/camremote/internal/ble/protocol"
	"github.com/chaz8081/camremote/internal/remote"
)

// Remote is the controller surface the API exposes.
type Remote interface {
	StartPairing(ctx context.Context) error
	CancelPairing(ctx context.Context) error
	Send(ctx context.Context, cmd protocol.Command) error
	Status(ctx context.Context) (remote.Status, error)
}

var _ Remote = (*remote.Controller)(nil)

// StatusResponse is the JSON form of remote.Status.
type StatusResponse struct {
	Connected   bool            `json:"connected"`
	PeerAddress string          `json:"peer_address,omitempty"`
	Pairing     string          `json:"pairing"`
	Candidate   string          `json:"candidate,omitempty"`
	Advertising string          `json:"advertising"`
	Waking      bool            `json:"waking"`
	Mode        string          `json:"mode"`
	Camera      *CameraResponse `json:"camera,omitempty"`
}

// CameraResponse describes the paired camera.
type CameraResponse struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	WakePayload string `json:"wake_payload"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// NewStatusResponse converts a controller snapshot.
func NewStatusResponse(s remote.Status) StatusResponse {
	resp := StatusResponse{
		Connected:   s.Link.Connected,
		PeerAddress: s.Link.PeerAddress,
		Pairing:     s.Pairing.String(),
		Candidate:   s.Candidate.Name,
		Advertising: s.Advertising.String(),
		Waking:      s.Waking,
		Mode:        s.Mode.String(),
	}
	if s.Camera.Valid {
		resp.Camera = &CameraResponse{
			Name:        s.Camera.Name,
			Address:     s.Camera.Address,
			WakePayload: protocol.HexString(s.Camera.WakePayload[:]),
		}
	}
	return resp
}

// NewRouter builds the API routes. metrics may be nil.
func NewRouter(r Remote, metrics http.Handler) http.Handler {
	h := &handler{remote: r}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(requestLogger)
	mux.Use(middleware.Recoverer)

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Get("/status", h.status)
	mux.Route("/pairing", func(r chi.Router) {
		r.Post("/", h.startPairing)
		r.Delete("/", h.cancelPairing)
	})
	mux.Post("/commands/{name}", h.command)
	if metrics != nil {
		mux.Method(http.MethodGet, "/metrics", metrics)
	}
	return mux
}

type handler struct {
	remote Remote
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	s, err := h.remote.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, NewStatusResponse(s))
}

func (h *handler) startPairing(w http.ResponseWriter, r *http.Request) {
	if err := h.remote.StartPairing(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.respondStatus(w, r, http.StatusAccepted)
}

func (h *handler) cancelPairing(w http.ResponseWriter, r *http.Request) {
	if err := h.remote.CancelPairing(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.respondStatus(w, r, http.StatusOK)
}

func (h *handler) command(w http.ResponseWriter, r *http.Request) {
	cmd, err := protocol.ParseCommand(chi.URLParam(r, "name"))
	if err != nil {
		errorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	if err := h.remote.Send(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	h.respondStatus(w, r, http.StatusOK)
}

func (h *handler) respondStatus(w http.ResponseWriter, r *http.Request, code int) {
	s, err := h.remote.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, code, NewStatusResponse(s))
}

// StatusCode maps controller errors onto HTTP statuses.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, remote.ErrNotConnected), errors.Is(err, remote.ErrWakeInProgress):
		return http.StatusConflict
	case errors.Is(err, remote.ErrNoCameraPaired):
		return http.StatusPreconditionFailed
	case errors.Is(err, remote.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	errorResponse(w, StatusCode(err), err.Error())
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("[HTTP] encode response", "error", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, ErrorResponse{Error: message, Code: status})
}

// requestLogger logs each request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("[HTTP] request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
