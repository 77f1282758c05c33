package pipeline

import (
	"context"
	"log/slog"
	"time"

	"videogen/internal/logging"
	"videogen/internal/taskstore"
)

// Result is a generator's per-line outcome.
type Result struct {
	OK        bool
	Artifacts []string
	Meta      map[string]string
	Error     string
}

// Generator produces one clip for one script line. Asynchronous generators
// return an OK result at submission time and record the job in the task
// store; the worker carries it to completion.
type Generator interface {
	Name() string
	Generate(ctx context.Context, project string, line Line, dir string) Result
}

// Submitter is the slice of the remote client the text-video generator
// needs.
type Submitter interface {
	Submit(ctx context.Context, prompt string) (string, error)
	Model() string
}

type textVideoGenerator struct {
	client Submitter
	store  *taskstore.Store
	logger *slog.Logger
}

// NewTextVideoGenerator builds the remote text-to-video generator.
func NewTextVideoGenerator(client Submitter, store *taskstore.Store, logger *slog.Logger) Generator {
	return &textVideoGenerator{
		client: client,
		store:  store,
		logger: logging.WithComponent(logger, "text_video"),
	}
}

func (g *textVideoGenerator) Name() string {
	return DefaultMethod
}

// Generate submits the line's prompt and records the pending job. A record
// already in the store for this project/target with a Succeeded status is
// not resubmitted; the store doubles as a resubmission cache.
func (g *textVideoGenerator) Generate(ctx context.Context, project string, line Line, dir string) Result {
	if existing, ok := g.findDone(project, line.ID); ok {
		g.logger.Info("clip already generated, skipping submission",
			logging.String(logging.FieldTarget, line.ID),
		)
		return Result{
			OK:        true,
			Artifacts: []string{existing.OutputPath},
			Meta:      map[string]string{"job_id": existing.JobID, "cached": "true"},
		}
	}

	jobID, err := g.client.Submit(ctx, line.EffectivePrompt())
	if err != nil {
		return Result{Error: err.Error()}
	}

	now := time.Now().Unix()
	rec := taskstore.Record{
		JobID:          jobID,
		Project:        project,
		Target:         line.ID,
		Prompt:         line.EffectivePrompt(),
		Model:          g.client.Model(),
		Status:         taskstore.StatusSubmitted,
		CreatedAt:      now,
		UpdatedAt:      now,
		Workdir:        dir,
		TargetDuration: line.Duration,
	}
	if err := g.store.Upsert(rec); err != nil {
		return Result{Error: "record job: " + err.Error()}
	}

	g.logger.Info("job submitted",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldTarget, line.ID),
	)
	return Result{OK: true, Meta: map[string]string{"job_id": jobID}}
}

func (g *textVideoGenerator) findDone(project, target string) (taskstore.Record, bool) {
	for _, rec := range g.store.All() {
		if rec.Project == project && rec.Target == target &&
			rec.Status == taskstore.StatusSucceeded && fileExists(rec.OutputPath) {
			return rec, true
		}
	}
	return taskstore.Record{}, false
}
