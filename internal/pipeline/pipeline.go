package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"videogen/internal/config"
	"videogen/internal/logging"
	"videogen/internal/manifest"
	"videogen/internal/media/concat"
	"videogen/internal/media/normalize"
	"videogen/internal/notifications"
	"videogen/internal/remote"
	"videogen/internal/subtitles"
	"videogen/internal/taskstore"
	"videogen/internal/worker"
)

// Pipeline orchestrates one project from script to final video.
type Pipeline struct {
	cfg          *config.Config
	store        *taskstore.Store
	client       *remote.Client
	normalizer   *normalize.Normalizer
	concatenator *concat.Concatenator
	burner       *subtitles.Burner
	notifier     notifications.Service
	registry     *worker.Registry
	generators   map[string]Generator
	logger       *slog.Logger

	// waitPoll is the store-snapshot interval for the synchronous wait.
	waitPoll time.Duration
}

// New wires a pipeline from configuration. The text-video generator is
// registered by default; additional generators attach via Register.
func New(cfg *config.Config, store *taskstore.Store, notifier notifications.Service, logger *slog.Logger) *Pipeline {
	client := remote.NewClient(cfg, logger)
	p := &Pipeline{
		cfg:          cfg,
		store:        store,
		client:       client,
		normalizer:   normalize.New(cfg, logger),
		concatenator: concat.New(cfg, logger),
		burner:       subtitles.NewBurner(cfg, logger),
		notifier:     notifier,
		registry:     worker.NewRegistry(),
		generators:   make(map[string]Generator),
		logger:       logging.WithComponent(logger, "pipeline"),
		waitPoll:     time.Second,
	}
	p.Register(NewTextVideoGenerator(client, store, logger))
	return p
}

// Register adds a generator, replacing any with the same name.
func (p *Pipeline) Register(gen Generator) {
	p.generators[gen.Name()] = gen
}

// ProjectDir returns the artifact directory for one project.
func (p *Pipeline) ProjectDir(project string) string {
	return filepath.Join(p.cfg.Paths.Workdir, "project", project)
}

// Run executes the full flow for one script: submit every line, wait for
// the worker to drain the store, assemble the final video, and write the
// run manifest. It returns the manifest path.
func (p *Pipeline) Run(ctx context.Context, script *Script) (string, error) {
	projectDir := p.ProjectDir(script.Project)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("create project directory: %w", err)
	}

	runID := uuid.NewString()
	man := manifest.New(script.Project, runID)
	p.logger.Info("run started",
		logging.String(logging.FieldProject, script.Project),
		logging.String("run_id", runID),
		logging.Int("lines", len(script.Lines)),
	)
	if err := p.notifier.NotifyRunStarted(ctx, script.Project, len(script.Lines)); err != nil {
		p.logger.Warn("notify run start", logging.Error(err))
	}

	w := worker.New(p.cfg, p.store, p.client, p.normalizer, p.logger)
	handle, started := p.registry.Start(ctx, w)
	if started {
		defer func() {
			handle.Stop()
			handle.Wait()
		}()
	}

	jobs := p.submitAll(ctx, script, projectDir)

	if err := p.WaitForDrain(ctx); err != nil {
		p.logger.Warn("synchronous wait ended early", logging.Error(err))
		if notifyErr := p.notifier.NotifyError(ctx, err, script.Project); notifyErr != nil {
			p.logger.Warn("notify wait error", logging.Error(notifyErr))
		}
	}

	p.collectOutcomes(ctx, script, jobs, man)

	finalPath, err := p.Assemble(ctx, script, man)
	if err != nil {
		p.logger.Error("assembly failed", logging.Error(err))
		if notifyErr := p.notifier.NotifyError(ctx, err, script.Project); notifyErr != nil {
			p.logger.Warn("notify assembly error", logging.Error(notifyErr))
		}
	} else {
		man.Final = finalPath
	}

	manifestPath := filepath.Join(projectDir, "manifest.json")
	if writeErr := man.Write(manifestPath); writeErr != nil {
		return "", fmt.Errorf("write manifest: %w", writeErr)
	}

	failed := len(man.Entries) - man.Succeeded()
	if notifyErr := p.notifier.NotifyRunCompleted(ctx, script.Project, man.Succeeded(), failed, man.Final); notifyErr != nil {
		p.logger.Warn("notify run completion", logging.Error(notifyErr))
	}
	p.logger.Info("run finished",
		logging.String(logging.FieldProject, script.Project),
		logging.Int("succeeded", man.Succeeded()),
		logging.Int("failed", failed),
	)
	return manifestPath, err
}

// submitAll hands every line to its generator and returns the line-to-job
// mapping for lines that were accepted.
func (p *Pipeline) submitAll(ctx context.Context, script *Script, projectDir string) map[string]string {
	jobs := make(map[string]string, len(script.Lines))
	for _, line := range script.Lines {
		method := line.EffectiveMethod()
		gen, ok := p.generators[method]
		if !ok {
			p.logger.Error("unknown generation method",
				logging.String(logging.FieldTarget, line.ID),
				logging.String("method", method),
			)
			continue
		}
		result := gen.Generate(ctx, script.Project, line, projectDir)
		if !result.OK {
			p.logger.Warn("submission failed",
				logging.String(logging.FieldTarget, line.ID),
				logging.String("reason", result.Error),
			)
			continue
		}
		jobs[line.ID] = result.Meta["job_id"]
	}
	return jobs
}

// collectOutcomes folds the task store's terminal state into the manifest,
// one entry per script line in script order.
func (p *Pipeline) collectOutcomes(ctx context.Context, script *Script, jobs map[string]string, man *manifest.Manifest) {
	for _, line := range script.Lines {
		entry := manifest.Entry{Target: line.ID, Method: line.EffectiveMethod()}
		jobID, submitted := jobs[line.ID]
		if !submitted {
			entry.Error = "submission failed"
		} else if rec, ok := p.store.Get(jobID); !ok {
			entry.Error = "job record missing"
		} else if rec.Status == taskstore.StatusSucceeded && fileExists(rec.OutputPath) {
			entry.OK = true
			entry.Artifacts = []string{rec.OutputPath}
		} else if rec.Error != "" {
			entry.Error = rec.Error
		} else {
			entry.Error = fmt.Sprintf("job ended with status %s", rec.Status)
		}

		if !entry.OK {
			if err := p.notifier.NotifyJobFailed(ctx, script.Project, line.ID, entry.Error); err != nil {
				p.logger.Warn("notify job failure", logging.Error(err))
			}
		}
		man.Add(entry)
	}
}

// WaitForDrain blocks until every record in the store is terminal, polling
// snapshots on a fixed interval. Its timeout is independent of the worker's
// poll-count ceiling; the worker keeps polling after a local timeout.
func (p *Pipeline) WaitForDrain(ctx context.Context) error {
	timeout := time.Duration(p.cfg.Worker.WaitTimeout) * time.Second
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(p.waitPoll)
	defer ticker.Stop()

	for {
		if drained(p.store.All()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("jobs still pending after %s", timeout)
		case <-ticker.C:
		}
	}
}

func drained(records []taskstore.Record) bool {
	for _, rec := range records {
		if !rec.IsTerminal() {
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
