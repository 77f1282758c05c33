package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"videogen/internal/config"
)

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := NewService(&cfg)
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyRunStarted(context.Background(), "demo", 3); err != nil {
		t.Fatalf("noop should never error: %v", err)
	}
}

func TestNtfySendHeaders(t *testing.T) {
	var gotTitle, gotTags, gotPriority, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		gotPriority = r.Header.Get("Priority")
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := NewService(&cfg)

	if err := svc.NotifyJobFailed(context.Background(), "demo", "L2", "timeout"); err != nil {
		t.Fatalf("NotifyJobFailed: %v", err)
	}
	if gotTitle != "Videogen - Clip Failed" {
		t.Errorf("title = %q", gotTitle)
	}
	if gotTags != "videogen,clip,failed" {
		t.Errorf("tags = %q", gotTags)
	}
	if gotPriority != "high" {
		t.Errorf("priority = %q", gotPriority)
	}
	if gotBody != "demo/L2: timeout" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestNtfyErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
