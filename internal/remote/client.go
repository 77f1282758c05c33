package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"videogen/internal/config"
	"videogen/internal/logging"
	"videogen/internal/services"
)

const userAgent = "videogen/0.1.0"

// Client talks to the asynchronous generation API. It is stateless; one
// instance may be shared across goroutines.
type Client struct {
	baseURL    string
	token      string
	model      string
	imageSize  string
	retries    int
	backoff    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithBackoffBase overrides the first retry delay. Used by tests to keep
// retry paths fast.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	timeout := time.Duration(cfg.Remote.RequestTimeout) * time.Second
	client := &Client{
		baseURL:    cfg.Remote.BaseURL,
		token:      cfg.Remote.APIToken,
		model:      cfg.Remote.Model,
		imageSize:  cfg.Remote.ImageSize,
		retries:    cfg.Remote.SubmitRetries,
		backoff:    500 * time.Millisecond,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.WithComponent(logger, "remote"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Model returns the configured generation model identifier.
func (c *Client) Model() string {
	return c.model
}

// Submit sends a generation request and returns the remote job id. Transient
// failures are retried with exponential backoff plus jitter up to the
// configured bound; the final error carries a structural kind so callers can
// switch on it without message matching.
func (c *Client) Submit(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.token) == "" {
		return "", services.Wrap(services.ErrConfiguration, "remote", "submit", "missing API token", nil)
	}

	var lastErr error
	delay := c.backoff
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			jittered := delay + rand.N(delay/2+1)
			select {
			case <-ctx.Done():
				return "", services.Wrap(services.ErrTransport, "remote", "submit", "canceled", ctx.Err())
			case <-time.After(jittered):
			}
			delay *= 2
		}

		id, err := c.submitOnce(ctx, prompt)
		if err == nil {
			return id, nil
		}
		lastErr = err
		if !services.Retryable(err) {
			return "", err
		}
		c.logger.Warn("submit attempt failed",
			logging.Int("attempt", attempt+1),
			logging.Error(err),
		)
	}
	return "", lastErr
}

func (c *Client) submitOnce(ctx context.Context, prompt string) (string, error) {
	payload := submitRequest{Model: c.model, Prompt: prompt, ImageSize: c.imageSize}
	resp, err := c.postJSON(ctx, c.baseURL+"/submit", payload)
	if err != nil {
		return "", services.Wrap(services.ErrTransport, "remote", "submit", "request failed", err)
	}
	defer resp.Body.Close()

	if err := classifyHTTPStatus(resp, "submit"); err != nil {
		return "", err
	}

	var decoded submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", services.Wrap(services.ErrMalformed, "remote", "submit", "decode response", err)
	}
	if strings.TrimSpace(decoded.RequestID) == "" {
		return "", services.Wrap(services.ErrMalformed, "remote", "submit", "response carries no job id", nil)
	}
	return decoded.RequestID, nil
}

// Status queries one job. It never returns a Go error: failures at any layer
// are normalized to a response with Status "Error" and the reason attached,
// so the polling state machine treats them like any other terminal report.
func (c *Client) Status(ctx context.Context, jobID string) StatusResponse {
	if strings.TrimSpace(c.token) == "" {
		return errorStatus("missing API token")
	}

	resp, err := c.postJSON(ctx, c.baseURL+"/status", statusRequest{RequestID: jobID})
	if err != nil {
		return errorStatus(fmt.Sprintf("status request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return errorStatus(fmt.Sprintf("status returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var decoded StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return errorStatus(fmt.Sprintf("decode status response: %v", err))
	}
	if strings.TrimSpace(decoded.Status) == "" {
		return errorStatus("status response carries no status")
	}
	return decoded
}

// Download streams a remote artifact to dest, creating parent directories.
// An incomplete transfer fails loudly and removes the partial file.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrNotFound, "remote", "download", "create destination directory", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return services.Wrap(services.ErrFatal, "remote", "download", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, "remote", "download", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrTransport, "remote", "download", fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	}

	file, err := os.Create(dest)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "remote", "download", "create destination file", err)
	}

	written, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return services.Wrap(services.ErrTransport, "remote", "download", "stream artifact", err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		_ = os.Remove(dest)
		return services.Wrap(services.ErrTransport, "remote", "download",
			fmt.Sprintf("incomplete transfer: %d of %d bytes", written, resp.ContentLength), nil)
	}

	c.logger.Debug("artifact downloaded",
		logging.String("dest", dest),
		logging.Any("bytes", written),
	)
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return c.httpClient.Do(req)
}

func classifyHTTPStatus(resp *http.Response, operation string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "remote", operation, "server throttled the request", nil)
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransport, "remote", operation, fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrFatal, "remote", operation,
			fmt.Sprintf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
}

func errorStatus(reason string) StatusResponse {
	return StatusResponse{Status: "Error", Reason: reason}
}
