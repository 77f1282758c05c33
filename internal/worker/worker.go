package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"videogen/internal/config"
	"videogen/internal/fileutil"
	"videogen/internal/logging"
	"videogen/internal/remote"
	"videogen/internal/taskstore"
)

// RemoteAPI is the slice of the remote client the worker needs.
type RemoteAPI interface {
	Status(ctx context.Context, jobID string) remote.StatusResponse
	Download(ctx context.Context, url, dest string) error
}

// Trimmer fits a downloaded clip to its target duration. It returns the
// achieved duration in seconds, or 0 when the fit failed, so the caller can
// fall back to the untrimmed raw file.
type Trimmer interface {
	FitDuration(ctx context.Context, src, dst string, seconds float64) (float64, error)
}

// Worker advances every non-terminal job in one task store until the store
// drains. It is the only mutator of job status after submission.
type Worker struct {
	store      *taskstore.Store
	remote     RemoteAPI
	trimmer    Trimmer
	interval   time.Duration
	maxPolls   int
	idleRounds int
	logger     *slog.Logger
}

// New builds a worker bound to one store. The worker does not start until
// handed to a Registry.
func New(cfg *config.Config, store *taskstore.Store, api RemoteAPI, trimmer Trimmer, logger *slog.Logger) *Worker {
	return &Worker{
		store:      store,
		remote:     api,
		trimmer:    trimmer,
		interval:   time.Duration(cfg.Worker.PollInterval) * time.Second,
		maxPolls:   cfg.Worker.MaxPolls,
		idleRounds: cfg.Worker.IdleRounds,
		logger:     logging.WithComponent(logger, "worker"),
	}
}

func (w *Worker) run(ctx context.Context) {
	w.logger.Info("polling loop started",
		logging.String("store", w.store.Path()),
		logging.Duration("interval", w.interval),
	)
	idle := 0
	for {
		records := w.store.All()
		switch {
		case len(records) == 0:
			// Nothing submitted yet; keep waiting.
		case allTerminal(records):
			idle++
			if idle >= w.idleRounds {
				w.Repair(ctx)
				w.logger.Info("all jobs terminal, polling loop stopped")
				return
			}
		default:
			idle = 0
			for _, rec := range records {
				if rec.IsTerminal() {
					continue
				}
				w.advance(ctx, rec)
			}
		}

		select {
		case <-ctx.Done():
			w.logger.Info("polling loop canceled")
			return
		case <-time.After(w.interval):
		}
	}
}

// advance performs one poll round for a single job and persists the result.
func (w *Worker) advance(ctx context.Context, rec taskstore.Record) {
	now := time.Now()
	if rec.PollCount >= w.maxPolls {
		rec.MarkError(fmt.Sprintf("no terminal status after %d polls", rec.PollCount), now)
		w.persist(rec)
		w.logger.Warn("job timed out",
			logging.String(logging.FieldJobID, rec.JobID),
			logging.Int("polls", rec.PollCount),
		)
		return
	}

	resp := w.remote.Status(ctx, rec.JobID)
	status, known := taskstore.ParseStatus(resp.Status)
	if !known {
		rec.MarkError(fmt.Sprintf("unrecognized remote status %q", resp.Status), now)
		w.persist(rec)
		return
	}

	switch {
	case status == taskstore.StatusSucceeded:
		url := resp.VideoURL()
		if url == "" {
			rec.MarkError("remote reported success without a media url", now)
			w.persist(rec)
			return
		}
		w.complete(ctx, rec, url, now)
	case status.IsTerminal():
		rec.Status = status
		rec.Error = strings.TrimSpace(resp.Reason)
		rec.UpdatedAt = now.Unix()
		w.persist(rec)
		w.logger.Warn("job failed remotely",
			logging.String(logging.FieldJobID, rec.JobID),
			logging.String(logging.FieldStatus, string(status)),
			logging.String("reason", rec.Error),
		)
	default:
		rec.Status = status
		rec.Touch(now)
		w.persist(rec)
	}
}

// complete downloads the artifact, fits it to the target duration, writes
// the sidecar metadata, and marks the job Succeeded. The raw download is
// kept so a failed fit is recoverable without resubmitting.
func (w *Worker) complete(ctx context.Context, rec taskstore.Record, url string, now time.Time) {
	rawPath := filepath.Join(rec.Workdir, rec.Target+"_raw.mp4")
	if err := w.remote.Download(ctx, url, rawPath); err != nil {
		rec.MarkError(fmt.Sprintf("download artifact: %v", err), now)
		w.persist(rec)
		return
	}

	rec.SourceURL = url
	finalPath := filepath.Join(rec.Workdir, rec.Target+".mp4")
	if err := w.finalize(ctx, rec, rawPath, finalPath); err != nil {
		rec.MarkError(fmt.Sprintf("finalize artifact: %v", err), now)
		w.persist(rec)
		return
	}

	rec.Status = taskstore.StatusSucceeded
	rec.OutputPath = finalPath
	rec.Error = ""
	rec.UpdatedAt = now.Unix()
	w.persist(rec)
	w.logger.Info("job succeeded",
		logging.String(logging.FieldJobID, rec.JobID),
		logging.String(logging.FieldTarget, rec.Target),
		logging.String("output", finalPath),
	)
}

// finalize produces the final artifact from the raw download. A zero target
// duration keeps the raw length; a failed fit falls back to copying the raw
// file unchanged.
func (w *Worker) finalize(ctx context.Context, rec taskstore.Record, rawPath, finalPath string) error {
	if rec.TargetDuration <= 0 {
		if err := fileutil.CopyFile(rawPath, finalPath); err != nil {
			return err
		}
		return w.writeSidecar(rec, finalPath)
	}

	achieved, err := w.trimmer.FitDuration(ctx, rawPath, finalPath, rec.TargetDuration)
	if err != nil || achieved == 0 {
		if err != nil {
			w.logger.Warn("duration fit failed, keeping raw clip",
				logging.String(logging.FieldJobID, rec.JobID),
				logging.Error(err),
			)
		}
		if copyErr := fileutil.CopyFile(rawPath, finalPath); copyErr != nil {
			return copyErr
		}
	}
	return w.writeSidecar(rec, finalPath)
}

type sidecar struct {
	JobID       string  `json:"job_id"`
	Project     string  `json:"project"`
	Target      string  `json:"target"`
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	SourceURL   string  `json:"source_url"`
	Duration    float64 `json:"target_duration"`
	CreatedAt   int64   `json:"created_at"`
	CompletedAt int64   `json:"completed_at"`
}

func (w *Worker) writeSidecar(rec taskstore.Record, finalPath string) error {
	meta := sidecar{
		JobID:       rec.JobID,
		Project:     rec.Project,
		Target:      rec.Target,
		Model:       rec.Model,
		Prompt:      rec.Prompt,
		SourceURL:   rec.SourceURL,
		Duration:    rec.TargetDuration,
		CreatedAt:   rec.CreatedAt,
		CompletedAt: time.Now().Unix(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	sidecarPath := strings.TrimSuffix(finalPath, filepath.Ext(finalPath)) + ".meta.json"
	return fileutil.WriteFileAtomic(sidecarPath, data, 0o644)
}

func (w *Worker) persist(rec taskstore.Record) {
	if err := w.store.Upsert(rec); err != nil {
		w.logger.Error("persist job record",
			logging.String(logging.FieldJobID, rec.JobID),
			logging.Error(err),
		)
	}
}

func allTerminal(records []taskstore.Record) bool {
	for _, rec := range records {
		if !rec.IsTerminal() {
			return false
		}
	}
	return true
}
