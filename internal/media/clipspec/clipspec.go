// Package clipspec resolves a set of probed clips into the single output
// geometry and frame rate every clip is normalized to before concatenation.
package clipspec

import (
	"errors"
	"math"

	"videogen/internal/media/ffprobe"
)

// Target is the resolved normalization geometry.
type Target struct {
	Width  int
	Height int
	FPS    int
}

// Limits optionally caps the resolved geometry. Zero values mean uncapped.
type Limits struct {
	MaxWidth  int
	MaxHeight int
}

// ErrNoClips is returned when nothing was probed.
var ErrNoClips = errors.New("no clips to resolve")

// Resolve computes the target geometry deterministically: width and height
// are each the maximum across all inputs (capped independently, not
// aspect-locked), and the frame rate is the most frequent rounded-integer
// rate, with ties going to the higher value. Dimensions are rounded up to
// even so downstream encoders accept them.
func Resolve(clips []ffprobe.Clip, limits Limits) (Target, error) {
	if len(clips) == 0 {
		return Target{}, ErrNoClips
	}

	width, height := 0, 0
	rates := make(map[int]int)
	for _, clip := range clips {
		width = max(width, clip.Width)
		height = max(height, clip.Height)
		rates[roundFPS(clip.FPS)]++
	}
	if limits.MaxWidth > 0 {
		width = min(width, limits.MaxWidth)
	}
	if limits.MaxHeight > 0 {
		height = min(height, limits.MaxHeight)
	}

	fps, best := 0, 0
	for rate, count := range rates {
		if count > best || (count == best && rate > fps) {
			fps, best = rate, count
		}
	}

	return Target{Width: even(width), Height: even(height), FPS: fps}, nil
}

func roundFPS(fps float64) int {
	if fps <= 0 {
		return int(math.Round(ffprobe.DefaultFPS))
	}
	return int(math.Round(fps))
}

func even(v int) int {
	if v%2 != 0 {
		return v + 1
	}
	return v
}
