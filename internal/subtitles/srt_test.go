package subtitles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"videogen/internal/config"
	"videogen/internal/logging"
)

const srtA = `1
00:00:00,000 --> 00:00:01,500
first line

2
00:00:01,500 --> 00:00:03,000
second line
`

const srtB = `1
00:00:00,000 --> 00:00:02,000
third line

2
00:00:02,000 --> 00:00:03,000
fourth line
`

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"00:00:00,000", 0},
		{"00:01:02,500", 62.5},
		{"01:00:00,001", 3600.001},
		{"00:00:05.250", 5.25},
	}
	for _, tc := range cases {
		got, err := parseTimestamp(tc.input)
		if err != nil {
			t.Errorf("parseTimestamp(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
	if _, err := parseTimestamp("garbage"); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		input float64
		want  string
	}{
		{0, "00:00:00,000"},
		{62.5, "00:01:02,500"},
		{3600.001, "01:00:00,001"},
		{-1, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := formatTimestamp(tc.input); got != tc.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	content := srtA + "\nnot a cue\n\n3\nbroken timing line\ntext\n"
	entries := Parse(content)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Text != "first line" || entries[1].Text != "second line" {
		t.Fatalf("unexpected cue text: %+v", entries)
	}
}

func TestMergeOffsetsAndRenumbers(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.srt")
	pathB := filepath.Join(dir, "b.srt")
	out := filepath.Join(dir, "merged.srt")
	if err := os.WriteFile(pathA, []byte(srtA), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pathB, []byte(srtB), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Merge([]string{pathA, pathB}, out); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	entries, err := ParseFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	for i, entry := range entries {
		if entry.Index != i+1 {
			t.Errorf("entry %d renumbered to %d", i, entry.Index)
		}
	}
	// The second file is shifted by the first file's 3s span.
	if entries[2].Start != 3 || entries[2].End != 5 {
		t.Errorf("third cue = [%v, %v], want [3, 5]", entries[2].Start, entries[2].End)
	}
	if entries[3].Start != 5 || entries[3].End != 6 {
		t.Errorf("fourth cue = [%v, %v], want [5, 6]", entries[3].Start, entries[3].End)
	}
	if entries[2].Text != "third line" {
		t.Errorf("cue text = %q", entries[2].Text)
	}
}

func TestMergeMissingFile(t *testing.T) {
	err := Merge([]string{filepath.Join(t.TempDir(), "missing.srt")}, filepath.Join(t.TempDir(), "out.srt"))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestBurnMissingFontIsSoftFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Assembly.FontFile = filepath.Join(t.TempDir(), "nope.ttc")
	burner := NewBurner(&cfg, logging.NewNop())

	err := burner.Burn(context.Background(), "in.mp4", "subs.srt", "out.mp4")
	if !errors.Is(err, ErrFontMissing) {
		t.Fatalf("expected ErrFontMissing, got %v", err)
	}
}

func TestBurnFilterStyle(t *testing.T) {
	cfg := config.Default()
	burner := NewBurner(&cfg, logging.NewNop())
	filter := burner.buildFilter("subs.srt", "/fonts/microhei.ttc")
	for _, want := range []string{"subtitles='subs.srt'", "FontName=microhei", "Alignment=2"} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}
}

func TestBurnFilterEscapesAwkwardPaths(t *testing.T) {
	cfg := config.Default()
	burner := NewBurner(&cfg, logging.NewNop())
	filter := burner.buildFilter(`/tmp/it's a clip/subs.srt`, "/fonts/microhei.ttc")
	if !strings.Contains(filter, `subtitles='/tmp/it\'s a clip/subs.srt'`) {
		t.Errorf("quote not escaped:\n%s", filter)
	}
	filter = burner.buildFilter(`C:\clips\subs.srt`, "/fonts/microhei.ttc")
	if !strings.Contains(filter, `subtitles='C\:\\clips\\subs.srt'`) {
		t.Errorf("backslash not escaped:\n%s", filter)
	}
}
