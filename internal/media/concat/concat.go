// Package concat joins normalized clips into one container. It tries a
// lossless stream copy first and falls back to a full re-encode when the
// copy fails, which absorbs subtle per-clip encoding drift at the cost of
// speed.
package concat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"videogen/internal/config"
	"videogen/internal/logging"
	"videogen/internal/services"
)

// Concatenator joins clips with ffmpeg's concat demuxer.
type Concatenator struct {
	ffmpeg string
	preset string
	crf    int
	logger *slog.Logger
}

// New builds a concatenator from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Concatenator {
	return &Concatenator{
		ffmpeg: cfg.FFmpegBinary(),
		preset: cfg.Assembly.Preset,
		crf:    cfg.Assembly.CRF,
		logger: logging.WithComponent(logger, "concat"),
	}
}

// Join concatenates clips in order into out. Stream copy is only valid when
// every input shares identical codec parameters; inputs are expected to
// have passed through the normalizer first. fps is used by the re-encode
// fallback to rebuild timestamps at the resolved rate.
func (c *Concatenator) Join(ctx context.Context, clips []string, out string, fps int) error {
	if len(clips) == 0 {
		return services.Wrap(services.ErrFatal, "concat", "join", "no clips to join", nil)
	}

	listFile, err := c.writeListFile(clips, filepath.Dir(out))
	if err != nil {
		return services.Wrap(services.ErrFatal, "concat", "join", "write list file", err)
	}
	defer os.Remove(listFile)

	copyArgs := []string{
		"-y", "-f", "concat", "-safe", "0", "-i", listFile,
		"-c", "copy",
		out,
	}
	if err := c.run(ctx, copyArgs); err == nil {
		c.logger.Info("clips joined via stream copy",
			logging.Int("clips", len(clips)),
			logging.String("output", out),
		)
		return nil
	} else {
		c.logger.Warn("stream copy failed, re-encoding", logging.Error(err))
	}

	encodeArgs := []string{
		"-y", "-f", "concat", "-safe", "0", "-i", listFile,
		"-vf", fmt.Sprintf("fps=%d,setpts=PTS-STARTPTS", fps),
		"-c:v", "libx264",
		"-preset", c.preset,
		"-crf", fmt.Sprintf("%d", c.crf),
		"-c:a", "aac",
		"-avoid_negative_ts", "make_zero",
		out,
	}
	if err := c.run(ctx, encodeArgs); err != nil {
		return services.Wrap(services.ErrExternalTool, "concat", "join", "re-encode concatenation", err)
	}
	c.logger.Info("clips joined via re-encode",
		logging.Int("clips", len(clips)),
		logging.String("output", out),
	)
	return nil
}

// writeListFile emits a concat demuxer list with a unique name so parallel
// joins in one directory never collide.
func (c *Concatenator) writeListFile(clips []string, dir string) (string, error) {
	var b strings.Builder
	for _, clip := range clips {
		abs, err := filepath.Abs(clip)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}

	path := filepath.Join(dir, "concat-"+uuid.NewString()+".txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Concatenator) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.ffmpeg, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		if len(trimmed) > 400 {
			trimmed = trimmed[len(trimmed)-400:]
		}
		return fmt.Errorf("%s: %w: %s", c.ffmpeg, err, trimmed)
	}
	return nil
}
