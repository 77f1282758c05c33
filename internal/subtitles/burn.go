package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"videogen/internal/config"
	"videogen/internal/logging"
	"videogen/internal/services"
)

// ErrFontMissing marks a burn attempt whose configured font file does not
// exist. Callers treat it as a soft failure and keep the clean output.
var ErrFontMissing = errors.New("subtitle font missing")

// Burner renders a subtitle track into the video pixels.
type Burner struct {
	ffmpeg   string
	preset   string
	crf      int
	fontFile string
	logger   *slog.Logger
}

// NewBurner builds a burner from configuration.
func NewBurner(cfg *config.Config, logger *slog.Logger) *Burner {
	return &Burner{
		ffmpeg:   cfg.FFmpegBinary(),
		preset:   cfg.Assembly.Preset,
		crf:      cfg.Assembly.CRF,
		fontFile: cfg.Assembly.FontFile,
		logger:   logging.WithComponent(logger, "burn"),
	}
}

// Burn re-encodes video with srt rendered in. The configured font must
// exist; its absence returns ErrFontMissing without touching out.
func (b *Burner) Burn(ctx context.Context, video, srt, out string) error {
	fontPath, err := filepath.Abs(b.fontFile)
	if err != nil || b.fontFile == "" {
		return fmt.Errorf("%w: %q", ErrFontMissing, b.fontFile)
	}
	if _, statErr := os.Stat(fontPath); statErr != nil {
		return fmt.Errorf("%w: %s", ErrFontMissing, fontPath)
	}

	args := []string{
		"-y", "-i", video,
		"-vf", b.buildFilter(srt, fontPath),
		"-c:v", "libx264",
		"-preset", b.preset,
		"-crf", fmt.Sprintf("%d", b.crf),
		"-c:a", "copy",
		out,
	}
	cmd := exec.CommandContext(ctx, b.ffmpeg, args...)
	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		trimmed := strings.TrimSpace(string(output))
		if len(trimmed) > 400 {
			trimmed = trimmed[len(trimmed)-400:]
		}
		return services.Wrap(services.ErrExternalTool, "burn", "encode",
			fmt.Sprintf("burn subtitles: %s", trimmed), runErr)
	}
	b.logger.Info("subtitles burned", logging.String("output", out))
	return nil
}

func (b *Burner) buildFilter(srt, fontPath string) string {
	fontName := strings.TrimSuffix(filepath.Base(fontPath), filepath.Ext(fontPath))
	return fmt.Sprintf(
		"subtitles='%s':force_style='FontName=%s,FontSize=21,"+
			"PrimaryColour=&Hffffff&,OutlineColour=&H000000&,BorderStyle=1,"+
			"Outline=2,Shadow=0,MarginV=50,Alignment=2'",
		escapeFilterPath(srt), fontName,
	)
}

// escapeFilterPath makes a path safe inside a single-quoted filtergraph
// value. Backslashes and quotes would otherwise terminate the quoting and
// break the graph; colons are escaped so the path also survives unquoted
// option parsing.
func escapeFilterPath(path string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`).Replace(path)
}
