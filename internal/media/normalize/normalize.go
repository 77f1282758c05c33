// Package normalize re-encodes clips to a shared geometry, frame rate,
// pixel format, and audio profile so concatenation never hits a codec or
// colorspace mismatch. It also fits downloaded clips to their scripted
// duration by retiming video and audio together.
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"videogen/internal/config"
	"videogen/internal/logging"
	"videogen/internal/media/clipspec"
	"videogen/internal/media/ffprobe"
	"videogen/internal/services"
)

// Normalizer drives ffmpeg for geometry normalization and duration fits.
type Normalizer struct {
	ffmpeg       string
	ffprobe      string
	preset       string
	crf          int
	pixelFormat  string
	audioRate    int
	audioBitrate string
	logger       *slog.Logger
}

// New builds a normalizer from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		ffmpeg:       cfg.FFmpegBinary(),
		ffprobe:      cfg.FFprobeBinary(),
		preset:       cfg.Assembly.Preset,
		crf:          cfg.Assembly.CRF,
		pixelFormat:  cfg.Assembly.PixelFormat,
		audioRate:    cfg.Assembly.AudioRate,
		audioBitrate: cfg.Assembly.AudioBitrate,
		logger:       logging.WithComponent(logger, "normalize"),
	}
}

// Normalize transcodes src to dst at exactly the target geometry: scaled
// preserving aspect ratio, letterboxed with centered black padding,
// resampled to the target rate, with timestamps regenerated from zero.
func (n *Normalizer) Normalize(ctx context.Context, src, dst string, target clipspec.Target) error {
	clip, err := ffprobe.Inspect(ctx, n.ffprobe, src)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "normalize", "probe", "inspect source", err)
	}

	args := n.buildNormalizeArgs(src, dst, target, clip.HasAudio)
	if err := n.run(ctx, args); err != nil {
		return services.Wrap(services.ErrExternalTool, "normalize", "encode", "normalize clip", err)
	}
	n.logger.Debug("clip normalized",
		logging.String("src", src),
		logging.String("dst", dst),
	)
	return nil
}

func (n *Normalizer) buildNormalizeArgs(src, dst string, target clipspec.Target, hasAudio bool) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease:flags=lanczos,"+
			"pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,fps=%d,setpts=PTS-STARTPTS",
		target.Width, target.Height, target.Width, target.Height, target.FPS,
	)
	args := []string{
		"-y", "-i", src,
		"-vf", filter,
		"-pix_fmt", n.pixelFormat,
		"-colorspace", "bt709",
		"-color_primaries", "bt709",
		"-color_trc", "bt709",
		"-c:v", "libx264",
		"-preset", n.preset,
		"-crf", fmt.Sprintf("%d", n.crf),
	}
	if hasAudio {
		args = append(args,
			"-c:a", "aac",
			"-ar", fmt.Sprintf("%d", n.audioRate),
			"-b:a", n.audioBitrate,
			"-af", "asetpts=PTS-STARTPTS",
		)
	} else {
		args = append(args, "-an")
	}
	return append(args, "-avoid_negative_ts", "make_zero", dst)
}

// run executes ffmpeg, surfacing the tail of its output on failure.
func (n *Normalizer) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, n.ffmpeg, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", n.ffmpeg, err, tail(string(output), 400))
	}
	return nil
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
