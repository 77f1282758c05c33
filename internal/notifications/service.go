// Package notifications pushes run progress to an ntfy topic when one is
// configured; otherwise every call is a silent no-op.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"videogen/internal/config"
)

const userAgent = "videogen/0.1.0"

// Service is the notification surface the pipeline uses.
type Service interface {
	NotifyRunStarted(ctx context.Context, project string, lines int) error
	NotifyRunCompleted(ctx context.Context, project string, succeeded, failed int, finalPath string) error
	NotifyJobFailed(ctx context.Context, project, target, reason string) error
	NotifyError(ctx context.Context, err error, detail string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// Without a topic a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, project string, lines int) error {
	return n.send(ctx, payload{
		title:   "Videogen - Run Started",
		message: fmt.Sprintf("Generating %d clips for %s", lines, strings.TrimSpace(project)),
		tags:    []string{"videogen", "run", "started"},
	})
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, project string, succeeded, failed int, finalPath string) error {
	message := fmt.Sprintf("%s: %d succeeded, %d failed", strings.TrimSpace(project), succeeded, failed)
	if finalPath != "" {
		message += "\nFinal video: " + finalPath
	}
	return n.send(ctx, payload{
		title:   "Videogen - Run Completed",
		message: message,
		tags:    []string{"videogen", "run", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, project, target, reason string) error {
	return n.send(ctx, payload{
		title:    "Videogen - Clip Failed",
		message:  fmt.Sprintf("%s/%s: %s", strings.TrimSpace(project), strings.TrimSpace(target), strings.TrimSpace(reason)),
		tags:     []string{"videogen", "clip", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, detail string) error {
	var builder strings.Builder
	builder.WriteString("Pipeline error")
	if detail = strings.TrimSpace(detail); detail != "" {
		builder.WriteString(" (" + detail + ")")
	}
	if err != nil {
		builder.WriteString(": " + err.Error())
	}
	return n.send(ctx, payload{
		title:    "Videogen - Error",
		message:  builder.String(),
		tags:     []string{"videogen", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Videogen - Test",
		message:  "Notification system test",
		tags:     []string{"videogen", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, int) error                 { return nil }
func (noopService) NotifyRunCompleted(context.Context, string, int, int, string) error  { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string, string) error       { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
