package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/chaz8081/camremote/internal/config"
)

// APIError is a non-2xx answer from the control API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("control API: %s (%d)", e.Message, e.StatusCode)
}

// ClientTimeout bounds one API call. Wake answers only after the pulse ends,
// so it must exceed config.MaxWakePulse.
const ClientTimeout = config.MaxWakePulse + 5*time.Second

// Client talks to a running remote's control API.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the API at addr ("host:port").
func NewClient(addr string) *Client {
	r := resty.New()
	r.SetBaseURL("http://" + addr)
	r.SetHeader("Accept", "application/json")
	r.SetTimeout(ClientTimeout)
	return &Client{http: r}
}

// Status fetches the controller snapshot.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	return c.do(ctx, http.MethodGet, "/status")
}

// StartPairing begins a pairing session.
func (c *Client) StartPairing(ctx context.Context) (StatusResponse, error) {
	return c.do(ctx, http.MethodPost, "/pairing")
}

// CancelPairing cancels the active pairing session.
func (c *Client) CancelPairing(ctx context.Context) (StatusResponse, error) {
	return c.do(ctx, http.MethodDelete, "/pairing")
}

// Command runs a named command (shutter, mode, screen, sleep or wake).
func (c *Client) Command(ctx context.Context, name string) (StatusResponse, error) {
	return c.do(ctx, http.MethodPost, "/commands/"+name)
}

// Ping reports whether a daemon answers on the address.
func (c *Client) Ping(ctx context.Context) bool {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	return err == nil && resp.StatusCode() == http.StatusOK
}

func (c *Client) do(ctx context.Context, method, path string) (StatusResponse, error) {
	var out StatusResponse
	var apiErr ErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Execute(method, path)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("httpapi: %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = resp.Status()
		}
		return StatusResponse{}, &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}
	return out, nil
}
