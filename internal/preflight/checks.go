// Package preflight validates the environment before a pipeline run:
// external tools present, work directories writable, enough free disk for
// downloads and intermediate encodes.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"videogen/internal/config"
	"videogen/internal/deps"
)

// MinFreeBytes is the floor of free disk space required in the workdir.
// Raw downloads plus normalized intermediates routinely double a project's
// footprint.
const MinFreeBytes = 2 << 30

// Result is one named check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Run executes every check against the configuration.
func Run(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("Workdir", cfg.Paths.Workdir),
		CheckDiskSpace("Disk space", cfg.Paths.Workdir, MinFreeBytes),
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		detail := status.Detail
		if status.Available {
			detail = status.Command
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
		})
	}
	return results
}

// Passed reports whether every check succeeded.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable and writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies that the filesystem holding path has at least
// minBytes available.
func CheckDiskSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%.1f GiB free, need %.1f GiB)",
			path, float64(free)/(1<<30), float64(minBytes)/(1<<30))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%.1f GiB free)", path, float64(free)/(1<<30))}
}
