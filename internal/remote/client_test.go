package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"videogen/internal/config"
	"videogen/internal/logging"
	"videogen/internal/services"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Remote.BaseURL = baseURL
	cfg.Remote.APIToken = "test-token"
	cfg.Remote.SubmitRetries = 2
	return &cfg
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(testConfig(server.URL), logging.NewNop(), WithBackoffBase(time.Millisecond))
}

func TestSubmitReturnsJobID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submit" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["prompt"] != "a quiet harbor at dawn" {
			t.Errorf("prompt = %q", req["prompt"])
		}
		json.NewEncoder(w).Encode(map[string]string{"requestId": "req-123"})
	}))

	id, err := client.Submit(context.Background(), "a quiet harbor at dawn")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "req-123" {
		t.Fatalf("id = %q, want req-123", id)
	}
}

func TestSubmitRetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"requestId": "req-9"})
	}))

	id, err := client.Submit(context.Background(), "p")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "req-9" {
		t.Fatalf("id = %q", id)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestSubmitDoesNotRetryFatal(t *testing.T) {
	attempts := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Submit(context.Background(), "p")
	if !errors.Is(err, services.ErrFatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestSubmitMissingIDIsMalformed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))

	_, err := client.Submit(context.Background(), "p")
	if !errors.Is(err, services.ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestSubmitWithoutTokenFailsFast(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Remote.APIToken = ""
	client := NewClient(cfg, logging.NewNop())

	_, err := client.Submit(context.Background(), "p")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStatusNormalizesFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		}},
		{"empty status", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{}"))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, tc.handler)
			resp := client.Status(context.Background(), "req-1")
			if resp.Status != "Error" {
				t.Fatalf("status = %q, want Error", resp.Status)
			}
			if resp.Reason == "" {
				t.Fatal("expected a reason on normalized failure")
			}
		})
	}
}

func TestStatusUnreachableServer(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"), logging.NewNop())
	resp := client.Status(context.Background(), "req-1")
	if resp.Status != "Error" || resp.Reason == "" {
		t.Fatalf("expected normalized transport failure, got %+v", resp)
	}
}

func TestStatusPassesThroughRemoteReport(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"Succeeded","results":{"videos":[{"url":"http://cdn/clip.mp4"}]}}`))
	}))

	resp := client.Status(context.Background(), "req-1")
	if resp.Status != "Succeeded" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.VideoURL() != "http://cdn/clip.mp4" {
		t.Fatalf("video url = %q", resp.VideoURL())
	}
}

func TestStatusCarriesRemoteErrorText(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"Failed","error":"content policy violation"}`))
	}))

	resp := client.Status(context.Background(), "req-1")
	if resp.Status != "Failed" {
		t.Fatalf("status = %q, want Failed", resp.Status)
	}
	if resp.Reason != "content policy violation" {
		t.Fatalf("reason = %q, want the remote error text", resp.Reason)
	}
}

func TestDownloadWritesFileAndParents(t *testing.T) {
	payload := []byte("fake video bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	client := NewClient(testConfig(server.URL), logging.NewNop())
	dest := filepath.Join(t.TempDir(), "project", "demo", "L1_raw.mp4")
	if err := client.Download(context.Background(), server.URL+"/clip.mp4", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("payload mismatch: %q", data)
	}
}

func TestDownloadIncompleteTransferFailsLoudly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("short"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Hijack and drop the connection so fewer bytes arrive than promised.
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
		}
	}))
	t.Cleanup(server.Close)

	client := NewClient(testConfig(server.URL), logging.NewNop())
	dest := filepath.Join(t.TempDir(), "clip.mp4")
	err := client.Download(context.Background(), server.URL+"/clip.mp4", dest)
	if err == nil {
		t.Fatal("expected incomplete transfer to fail")
	}
	if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("partial file should be removed, stat err = %v", statErr)
	}
}
