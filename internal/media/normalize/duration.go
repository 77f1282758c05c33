package normalize

import (
	"context"
	"fmt"
	"strings"

	"videogen/internal/logging"
	"videogen/internal/media/ffprobe"
	"videogen/internal/services"
)

// FitDuration retimes src so its playback length matches seconds, writing
// the result to dst, and returns the achieved duration of the output. A
// zero return with nil error means the source duration could not be read;
// the caller decides whether to fall back to the raw file.
func (n *Normalizer) FitDuration(ctx context.Context, src, dst string, seconds float64) (float64, error) {
	if seconds <= 0 {
		return 0, services.Wrap(services.ErrFatal, "normalize", "fit", fmt.Sprintf("invalid target duration %v", seconds), nil)
	}

	clip, err := ffprobe.Inspect(ctx, n.ffprobe, src)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "normalize", "fit", "inspect source", err)
	}
	if clip.Duration <= 0 {
		n.logger.Warn("source duration unreadable, skipping fit",
			logging.String("src", src),
		)
		return 0, nil
	}

	scale := clip.Duration / seconds
	args := []string{
		"-y", "-i", src,
		"-filter_complex", buildRetimeFilter(scale, clip.HasAudio),
		"-map", "[v]",
	}
	if clip.HasAudio {
		args = append(args, "-map", "[a]")
	}
	args = append(args, "-c:v", "libx264", "-c:a", "aac", dst)

	if err := n.run(ctx, args); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "normalize", "fit", "retime clip", err)
	}

	fitted, err := ffprobe.Inspect(ctx, n.ffprobe, dst)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "normalize", "fit", "inspect output", err)
	}
	n.logger.Debug("clip retimed",
		logging.String("dst", dst),
		logging.Float64("target", seconds),
		logging.Float64("achieved", fitted.Duration),
	)
	return fitted.Duration, nil
}

// buildRetimeFilter stretches or compresses playback by scale. Video uses a
// single setpts factor; audio chains atempo stages because each stage only
// accepts ratios in [0.5, 2.0].
func buildRetimeFilter(scale float64, hasAudio bool) string {
	video := fmt.Sprintf("[0:v]setpts=%.6f*PTS[v]", 1/scale)
	if !hasAudio {
		return video
	}
	return video + ";[0:a]" + atempoChain(scale) + "[a]"
}

func atempoChain(scale float64) string {
	var stages []string
	r := scale
	for r < 0.5 || r > 2.0 {
		if r < 0.5 {
			stages = append(stages, "atempo=0.5")
			r /= 0.5
		} else {
			stages = append(stages, "atempo=2.0")
			r /= 2.0
		}
	}
	stages = append(stages, fmt.Sprintf("atempo=%.3f", r))
	return strings.Join(stages, ",")
}
