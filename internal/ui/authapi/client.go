// Package authapi posts credentials to the external ChatApp authentication API.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Its-donkey/chatapp-web/internal/ui/model"
	"github.com/Its-donkey/chatapp-web/logging"
)

const (
	// LoginPath and RegisterPath are appended to the configured base URL.
	LoginPath    = "/login/"
	RegisterPath = "/register/"

	maxResponseBody = 64 << 10
	defaultTimeout  = 12 * time.Second
)

// ServerRejection reports a non-2xx answer from the auth API.
type ServerRejection struct {
	Status  int
	Message string
	Body    string
}

func (e *ServerRejection) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth api rejected request: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("auth api rejected request: %d", e.Status)
}

// TransportFailure reports that no response was received.
type TransportFailure struct {
	Err error
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("auth api unreachable: %v", e.Err)
}

func (e *TransportFailure) Unwrap() error {
	return e.Err
}

// Client sends JSON payloads to the auth API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewClient builds a client with its own timeout-bound HTTP client.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// Send posts payload as JSON to BaseURL+path. It returns nil on any 2xx,
// *ServerRejection on other statuses and *TransportFailure when the request
// could not complete.
func (c *Client) Send(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log := c.Logger.FromContext(ctx).WithCategory("authapi").WithField("endpoint", path)

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.WithField("error", err.Error()).Warn("request failed")
		return &TransportFailure{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		log.WithField("error", err.Error()).Warn("read response failed")
		return &TransportFailure{Err: err}
	}

	log = log.WithFields(map[string]any{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rejection := &ServerRejection{
			Status:  resp.StatusCode,
			Message: errorText(respBody),
			Body:    strings.TrimSpace(string(respBody)),
		}
		log.Info("request rejected")
		return rejection
	}

	log.WithField("body", strings.TrimSpace(string(respBody))).Debug("request accepted")
	return nil
}

// errorText extracts the "error" string of a JSON failure body.
func errorText(body []byte) string {
	var payload model.APIError
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}
