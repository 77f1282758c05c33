// Package ffprobe wraps the ffprobe binary to extract the geometry and
// timing facts the pipeline needs before normalization.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultFPS is assumed when a stream reports no usable frame rate.
const DefaultFPS = 30.0

// ErrNoVideoStream marks a probed file with no video stream. Callers must
// not fabricate zero-valued geometry for such files.
var ErrNoVideoStream = errors.New("no video stream")

// Clip is the probe summary the resolver and normalizer consume.
type Clip struct {
	Path     string
	Width    int
	Height   int
	FPS      float64
	HasAudio bool
	Duration float64
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	Duration     string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Inspect executes ffprobe against path and summarizes the first video
// stream. A file with only audio streams fails with ErrNoVideoStream.
func Inspect(ctx context.Context, binary string, path string) (Clip, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Clip{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return Clip{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, detail)
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return Clip{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return summarize(path, result)
}

func summarize(path string, result probeResult) (Clip, error) {
	clip := Clip{Path: path, FPS: DefaultFPS}
	foundVideo := false
	for _, stream := range result.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			clip.Width = stream.Width
			clip.Height = stream.Height
			clip.FPS = ParseFrameRate(stream.AvgFrameRate)
			if clip.FPS == DefaultFPS && stream.RFrameRate != "" {
				clip.FPS = ParseFrameRate(stream.RFrameRate)
			}
			if d := parseSeconds(stream.Duration); d > 0 {
				clip.Duration = d
			}
		case "audio":
			clip.HasAudio = true
		}
	}
	if !foundVideo {
		return Clip{}, fmt.Errorf("ffprobe inspect %s: %w", path, ErrNoVideoStream)
	}
	if clip.Duration == 0 {
		clip.Duration = parseSeconds(result.Format.Duration)
	}
	return clip, nil
}

// ParseFrameRate converts ffprobe's fractional rate representation, for
// example "30000/1001", into a float. Absent or malformed rates fall back
// to DefaultFPS.
func ParseFrameRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "0/0" {
		return DefaultFPS
	}
	if num, den, ok := strings.Cut(value, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 || n <= 0 {
			return DefaultFPS
		}
		return n / d
	}
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil || rate <= 0 {
		return DefaultFPS
	}
	return rate
}

func parseSeconds(value string) float64 {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}
