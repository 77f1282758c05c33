// Package deps reports the availability of the external binaries the
// pipeline shells out to.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"videogen/internal/config"
)

// Requirement defines an external tool the pipeline relies on. File marks
// requirements that are plain files rather than executables on PATH.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	File        bool
}

// Status reports the availability of one requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the tools a full pipeline run needs.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for normalization, concatenation, and duration fitting",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
	}
	if cfg.Assembly.BurnSubtitles {
		reqs = append(reqs, Requirement{
			Name:        "Subtitle font",
			Command:     cfg.Assembly.FontFile,
			Description: "Font file for subtitle burn-in",
			Optional:    true,
			File:        true,
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if req.File {
			if _, err := os.Stat(cmd); err != nil {
				status.Detail = fmt.Sprintf("file %q not found", cmd)
			} else {
				status.Available = true
			}
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
