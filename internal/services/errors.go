package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks network-level failures: refused connections,
	// timeouts, 5xx responses. Retryable at the submission layer.
	ErrTransport = errors.New("transport error")

	// ErrRateLimited marks 429 responses. Retryable after backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformed marks responses we could reach but not use: decode
	// failures, missing job ids, success payloads without artifacts.
	ErrMalformed = errors.New("malformed response")

	// ErrFatal marks failures no retry can fix, such as authentication
	// rejections and other non-retryable 4xx responses.
	ErrFatal = errors.New("fatal request error")

	// ErrExternalTool marks ffmpeg/ffprobe invocation failures.
	ErrExternalTool = errors.New("external tool error")

	// ErrConfiguration marks missing or invalid local configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks absent local resources (fonts, clips, stores).
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the submission layer should retry after backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrRateLimited)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
