package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"videogen/internal/logging"
	"videogen/internal/manifest"
	"videogen/internal/media/clipspec"
	"videogen/internal/media/ffprobe"
	"videogen/internal/subtitles"
)

// Assemble turns the script's completed clips into the final project video:
// probe, resolve a shared geometry, normalize, concatenate, merge subtitle
// tracks, and optionally burn them in. Clips that fail probing or
// normalization are excluded and logged, never fatal to the run.
func (p *Pipeline) Assemble(ctx context.Context, script *Script, man *manifest.Manifest) (string, error) {
	projectDir := p.ProjectDir(script.Project)

	type clip struct {
		line   Line
		path   string
		probed ffprobe.Clip
	}
	var clips []clip
	for _, line := range script.Lines {
		path := filepath.Join(projectDir, line.ID+".mp4")
		if man != nil && !entryOK(man, line.ID) {
			continue
		}
		if !fileExists(path) {
			continue
		}
		probed, err := ffprobe.Inspect(ctx, p.cfg.FFprobeBinary(), path)
		if err != nil {
			p.logger.Warn("probe failed, excluding clip",
				logging.String(logging.FieldTarget, line.ID),
				logging.Error(err),
			)
			continue
		}
		clips = append(clips, clip{line: line, path: path, probed: probed})
	}
	if len(clips) == 0 {
		return "", errors.New("no completed clips to assemble")
	}

	specs := make([]ffprobe.Clip, 0, len(clips))
	for _, c := range clips {
		specs = append(specs, c.probed)
	}
	target, err := clipspec.Resolve(specs, clipspec.Limits{
		MaxWidth:  p.cfg.Assembly.MaxWidth,
		MaxHeight: p.cfg.Assembly.MaxHeight,
	})
	if err != nil {
		return "", fmt.Errorf("resolve target geometry: %w", err)
	}
	p.logger.Info("assembly target resolved",
		logging.Int("width", target.Width),
		logging.Int("height", target.Height),
		logging.Int("fps", target.FPS),
	)

	var normalized []string
	var srtFiles []string
	for _, c := range clips {
		dst := filepath.Join(projectDir, c.line.ID+"_norm.mp4")
		if err := p.normalizer.Normalize(ctx, c.path, dst, target); err != nil {
			p.logger.Warn("normalization failed, excluding clip",
				logging.String(logging.FieldTarget, c.line.ID),
				logging.Error(err),
			)
			continue
		}
		normalized = append(normalized, dst)
		if c.line.Subtitle != "" {
			srt := c.line.Subtitle
			if !filepath.IsAbs(srt) {
				srt = filepath.Join(projectDir, srt)
			}
			if fileExists(srt) {
				srtFiles = append(srtFiles, srt)
			} else {
				p.logger.Warn("subtitle file missing",
					logging.String(logging.FieldTarget, c.line.ID),
					logging.String("subtitle", srt),
				)
			}
		}
	}
	if len(normalized) == 0 {
		return "", errors.New("every clip failed normalization")
	}

	finalPath := filepath.Join(projectDir, script.Project+"_final.mp4")
	if err := p.concatenator.Join(ctx, normalized, finalPath, target.FPS); err != nil {
		return "", fmt.Errorf("concatenate clips: %w", err)
	}

	if len(srtFiles) > 0 {
		mergedSRT := filepath.Join(projectDir, script.Project+".srt")
		if err := subtitles.Merge(srtFiles, mergedSRT); err != nil {
			p.logger.Warn("subtitle merge failed", logging.Error(err))
		} else if p.cfg.Assembly.BurnSubtitles {
			burnedPath := filepath.Join(projectDir, script.Project+"_final_subbed.mp4")
			switch err := p.burner.Burn(ctx, finalPath, mergedSRT, burnedPath); {
			case errors.Is(err, subtitles.ErrFontMissing):
				p.logger.Warn("font missing, keeping clean output", logging.Error(err))
			case err != nil:
				p.logger.Warn("subtitle burn failed, keeping clean output", logging.Error(err))
			default:
				finalPath = burnedPath
			}
		}
	}

	p.logger.Info("assembly finished", logging.String("final", finalPath))
	return finalPath, nil
}

func entryOK(man *manifest.Manifest, target string) bool {
	for _, entry := range man.Entries {
		if entry.Target == target {
			return entry.OK
		}
	}
	return false
}
