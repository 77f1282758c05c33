package worker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"videogen/internal/logging"
	"videogen/internal/taskstore"
)

// Repair rebuilds final artifacts for jobs whose raw download exists but
// whose final clip does not, the footprint of a crash between download and
// duration fit. It is idempotent and safe to run any number of times.
func (w *Worker) Repair(ctx context.Context) {
	for _, rec := range w.store.All() {
		if !rec.IsTerminal() || rec.Status != taskstore.StatusSucceeded {
			continue
		}
		rawPath := filepath.Join(rec.Workdir, rec.Target+"_raw.mp4")
		finalPath := filepath.Join(rec.Workdir, rec.Target+".mp4")
		if !fileExists(rawPath) || fileExists(finalPath) {
			continue
		}

		w.logger.Info("repairing interrupted job",
			logging.String(logging.FieldJobID, rec.JobID),
			logging.String(logging.FieldTarget, rec.Target),
		)
		if err := w.finalize(ctx, rec, rawPath, finalPath); err != nil {
			w.logger.Warn("repair failed",
				logging.String(logging.FieldJobID, rec.JobID),
				logging.Error(err),
			)
			continue
		}
		rec.OutputPath = finalPath
		rec.UpdatedAt = time.Now().Unix()
		w.persist(rec)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
