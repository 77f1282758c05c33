// Package subtitles merges per-clip SRT files into one track aligned with
// the concatenated video, and optionally burns the track into the pixels.
package subtitles

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Entry is one subtitle cue. Start and End are seconds from track start.
type Entry struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// ParseFile reads an SRT file into cues. Blocks without a valid timing
// line are skipped rather than failing the whole file.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse decodes SRT content into cues.
func Parse(content string) []Entry {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var entries []Entry
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		// First line is the cue number; timing is on the second.
		timing := lines[1]
		if !strings.Contains(timing, "-->") {
			continue
		}
		parts := strings.SplitN(timing, "-->", 2)
		start, errStart := parseTimestamp(parts[0])
		end, errEnd := parseTimestamp(parts[1])
		if errStart != nil || errEnd != nil {
			continue
		}
		entries = append(entries, Entry{
			Index: len(entries) + 1,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return entries
}

// Merge combines SRT files in playback order. Each file's cues are shifted
// by the running total of the previous files' spans, where a file's span is
// the largest end timestamp among its own cues. Output cues are renumbered
// contiguously from 1.
func Merge(paths []string, outputPath string) error {
	var merged []Entry
	offset := 0.0
	for _, path := range paths {
		entries, err := ParseFile(path)
		if err != nil {
			return err
		}
		span := 0.0
		for _, entry := range entries {
			span = math.Max(span, entry.End)
			merged = append(merged, Entry{
				Index: len(merged) + 1,
				Start: entry.Start + offset,
				End:   entry.End + offset,
				Text:  entry.Text,
			})
		}
		offset += span
	}

	var b strings.Builder
	for _, entry := range merged {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			entry.Index,
			formatTimestamp(entry.Start),
			formatTimestamp(entry.End),
			entry.Text,
		)
	}
	return os.WriteFile(outputPath, []byte(b.String()), 0o644)
}

// parseTimestamp converts "HH:MM:SS,mmm" to seconds. A period separator is
// tolerated since some generators emit it.
func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")

	millis := 0.0
	if main, frac, ok := strings.Cut(value, ","); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(frac))
		if err != nil {
			return 0, fmt.Errorf("invalid milliseconds %q", frac)
		}
		millis = float64(parsed) / 1000
		value = main
	}

	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q", parts[0])
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes %q", parts[1])
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds %q", parts[2])
	}
	return float64(hours*3600+minutes*60+seconds) + millis, nil
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int(math.Round(seconds * 1000))
	hours := totalMillis / 3600000
	totalMillis %= 3600000
	minutes := totalMillis / 60000
	totalMillis %= 60000
	secs := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
