package concat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"videogen/internal/config"
	"videogen/internal/logging"
)

func newTestConcatenator(t *testing.T, ffmpeg string) *Concatenator {
	t.Helper()
	cfg := config.Default()
	c := New(&cfg, logging.NewNop())
	c.ffmpeg = ffmpeg
	return c
}

// writeStubFFmpeg creates a shell script standing in for ffmpeg. When
// failCopy is set, invocations containing "-c copy" exit non-zero; all
// other invocations create the output file (the last argument).
func writeStubFFmpeg(t *testing.T, failCopy bool) string {
	t.Helper()
	script := "#!/bin/sh\n"
	if failCopy {
		script += "case \"$*\" in *'-c copy'*) echo 'copy failed' >&2; exit 1;; esac\n"
	}
	script += "for last; do :; done\necho stub > \"$last\"\n"

	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeClips(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("clip"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestJoinStreamCopy(t *testing.T) {
	dir := t.TempDir()
	clips := writeClips(t, dir, "a.mp4", "b.mp4")
	out := filepath.Join(dir, "final.mp4")

	c := newTestConcatenator(t, writeStubFFmpeg(t, false))
	if err := c.Join(context.Background(), clips, out, 30); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	assertNoListFiles(t, dir)
}

func TestJoinFallsBackToReencode(t *testing.T) {
	dir := t.TempDir()
	clips := writeClips(t, dir, "a.mp4", "b.mp4")
	out := filepath.Join(dir, "final.mp4")

	c := newTestConcatenator(t, writeStubFFmpeg(t, true))
	if err := c.Join(context.Background(), clips, out, 30); err != nil {
		t.Fatalf("Join with fallback: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("fallback output missing: %v", err)
	}
	assertNoListFiles(t, dir)
}

func TestJoinNoClips(t *testing.T) {
	c := newTestConcatenator(t, "ffmpeg")
	err := c.Join(context.Background(), nil, filepath.Join(t.TempDir(), "out.mp4"), 30)
	if err == nil {
		t.Fatal("expected error for empty clip set")
	}
}

func TestWriteListFileOrderAndQuoting(t *testing.T) {
	dir := t.TempDir()
	clips := writeClips(t, dir, "first.mp4", "it's.mp4")

	c := newTestConcatenator(t, "ffmpeg")
	listFile, err := c.writeListFile(clips, dir)
	if err != nil {
		t.Fatalf("writeListFile: %v", err)
	}
	defer os.Remove(listFile)

	data, err := os.ReadFile(listFile)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "first.mp4") {
		t.Errorf("input order not preserved: %q", lines[0])
	}
	if !strings.Contains(lines[1], `it'\''s.mp4`) {
		t.Errorf("single quote not escaped: %q", lines[1])
	}
}

func assertNoListFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "concat-*.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Fatalf("list files left behind: %v", matches)
	}
}
