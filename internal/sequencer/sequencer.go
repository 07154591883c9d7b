// Package sequencer orders engine work. Jobs for the same project always run
// one at a time in submission order; jobs for distinct projects run
// concurrently under the per-project policy, or strictly one at a time under
// the global policy.
package sequencer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/config"
	"clipforge/internal/engine"
	"clipforge/internal/generate"
	"clipforge/internal/logging"
	"clipforge/internal/plan"
	"clipforge/internal/project"
	"clipforge/internal/services"
)

const component = "sequencer"

// Transformer is the slice of the engine adapter the sequencer drives.
type Transformer interface {
	Initialize(ctx context.Context) error
	LoadSource(ctx context.Context, path string) (engine.Source, error)
	Execute(ctx context.Context, command engine.Command) (engine.Result, error)
}

// Sequencer owns the job queues and the workers that drain them.
type Sequencer struct {
	store       *project.Store
	transformer Transformer
	generator   generate.Generator
	logger      *slog.Logger
	globalLock  bool
	queueDepth  int

	// submitMu serializes generation submissions so the pending-job check
	// and the enqueue happen atomically with respect to other submitters.
	submitMu sync.Mutex

	mu      sync.Mutex
	jobs    map[string]*Job
	queues  map[string][]*Job
	active  map[string]bool
	serial  sync.Mutex
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
	closed  bool
}

// New constructs a sequencer from configuration and its collaborators.
func New(cfg *config.Config, store *project.Store, transformer Transformer, generator generate.Generator, logger *slog.Logger) *Sequencer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sequencer{
		store:       store,
		transformer: transformer,
		generator:   generator,
		logger:      logging.NewComponentLogger(logger, component),
		globalLock:  cfg.Engine.Concurrency == config.ConcurrencyGlobal,
		queueDepth:  cfg.Workflow.JobQueueDepth,
		jobs:        make(map[string]*Job),
		queues:      make(map[string][]*Job),
		active:      make(map[string]bool),
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// SubmitGeneration queues generation work for a project. Starting a draft or
// failed project transitions it to processing and enqueues exactly one job.
// Starting a project that is already processing returns the active job without
// queueing another; starting a completed project is a no-op with ok=false.
// Concurrent starts for the same project agree on a single job.
func (s *Sequencer) SubmitGeneration(ctx context.Context, projectID string) (Job, bool, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return Job{}, false, err
	}

	s.mu.Lock()
	if existing := s.pendingGenerationLocked(projectID); existing != nil {
		snapshot := existing.snapshot()
		s.mu.Unlock()
		return snapshot, true, nil
	}
	s.mu.Unlock()

	if !p.CanStartGeneration() {
		if p.Status == project.StatusCompleted {
			return Job{}, false, nil
		}
		return Job{}, false, services.Wrap(services.ErrIllegalTransition, component, "submit_generation",
			fmt.Sprintf("project %s is %s with no live job", projectID, p.Status), nil)
	}

	if err := p.SetProcessing(); err != nil {
		return Job{}, false, err
	}
	if err := s.store.Update(ctx, p); err != nil {
		return Job{}, false, err
	}

	job := s.newJob(projectID, JobGeneration, "generate "+string(p.Input.Kind), nil)
	if err := s.enqueue(job); err != nil {
		return Job{}, false, err
	}
	return job.snapshot(), true, nil
}

// SubmitEdit validates an editing operation against the project's current
// output and queues it. Validation failures surface synchronously; the project
// must be completed before edits are accepted.
func (s *Sequencer) SubmitEdit(ctx context.Context, projectID string, op plan.Operation) (Job, error) {
	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return Job{}, err
	}
	if p.Status != project.StatusCompleted || p.Output == nil {
		return Job{}, services.Wrap(services.ErrIllegalTransition, component, "submit_edit",
			fmt.Sprintf("project %s is %s", projectID, p.Status), nil)
	}
	if err := plan.Validate(op, p.SourceDuration()); err != nil {
		return Job{}, err
	}

	job := s.newJob(projectID, JobEdit, plan.Describe(op), &op)
	if err := s.enqueue(job); err != nil {
		return Job{}, err
	}
	return job.snapshot(), nil
}

// Job returns a snapshot of one job.
func (s *Sequencer) Job(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.snapshot(), true
}

// Jobs returns snapshots of all jobs for a project, oldest first.
func (s *Sequencer) Jobs(projectID string) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Job
	for _, job := range s.jobs {
		if job.ProjectID == projectID {
			out = append(out, job.snapshot())
		}
	}
	sortJobs(out)
	return out
}

// Await blocks until the job reaches a terminal status or the context ends.
func (s *Sequencer) Await(ctx context.Context, jobID string) (Job, error) {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return Job{}, services.Wrap(services.ErrNotFound, component, "await", jobID, nil)
	}

	select {
	case <-job.done:
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return job.snapshot(), nil
}

// Close stops accepting work and drains already-queued jobs to completion.
// Job contexts stay live until the last worker retires, so lifecycle
// transitions land in the store even during shutdown.
func (s *Sequencer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	s.cancel()
}

func (s *Sequencer) newJob(projectID string, kind JobKind, label string, op *plan.Operation) *Job {
	return &Job{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Kind:      kind,
		Label:     label,
		Status:    JobQueued,
		Operation: op,
		CreatedAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}
}

func (s *Sequencer) enqueue(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return services.Wrap(services.ErrEngineNotReady, component, "enqueue", "sequencer closed", nil)
	}
	if s.queueDepth > 0 && len(s.queues[job.ProjectID]) >= s.queueDepth {
		return services.Wrap(services.ErrEngineNotReady, component, "enqueue",
			fmt.Sprintf("job queue for project %s is full", job.ProjectID), nil)
	}
	s.jobs[job.ID] = job
	s.queues[job.ProjectID] = append(s.queues[job.ProjectID], job)
	if !s.active[job.ProjectID] {
		s.active[job.ProjectID] = true
		s.wg.Add(1)
		go s.drain(job.ProjectID)
	}
	return nil
}

func (s *Sequencer) pendingGenerationLocked(projectID string) *Job {
	for _, job := range s.jobs {
		if job.ProjectID == projectID && job.Kind == JobGeneration && !job.Terminal() {
			return job
		}
	}
	return nil
}

// drain runs the queued jobs for one project in order, then retires.
func (s *Sequencer) drain(projectID string) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		queue := s.queues[projectID]
		if len(queue) == 0 {
			s.active[projectID] = false
			delete(s.queues, projectID)
			s.mu.Unlock()
			return
		}
		job := queue[0]
		s.queues[projectID] = queue[1:]
		s.mu.Unlock()

		s.runJob(job)
	}
}

func (s *Sequencer) runJob(job *Job) {
	if s.globalLock {
		s.serial.Lock()
		defer s.serial.Unlock()
	}

	ctx := services.WithProjectID(s.baseCtx, job.ProjectID)
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithOperation(ctx, job.Label)
	logger := logging.WithContext(ctx, s.logger)

	s.mu.Lock()
	job.Status = JobRunning
	job.StartedAt = time.Now().UTC()
	s.mu.Unlock()

	logger.Info("job started")

	var err error
	switch job.Kind {
	case JobGeneration:
		err = s.runGeneration(ctx, job)
	case JobEdit:
		err = s.runEdit(ctx, job)
	default:
		err = services.Wrap(services.ErrValidation, component, "run_job",
			fmt.Sprintf("unknown job kind %q", job.Kind), nil)
	}

	s.mu.Lock()
	job.FinishedAt = time.Now().UTC()
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
	} else {
		job.Status = JobSucceeded
	}
	close(job.done)
	s.mu.Unlock()

	if err != nil {
		logger.Error("job failed", logging.Error(err))
		return
	}
	logger.Info("job finished")
}

// runGeneration renders the project input and records the lifecycle outcome.
// Generation failures move the project to failed so it stays retryable.
func (s *Sequencer) runGeneration(ctx context.Context, job *Job) error {
	p, err := s.store.GetByID(ctx, job.ProjectID)
	if err != nil {
		return err
	}

	output, genErr := s.generator.Generate(ctx, p)
	if genErr != nil {
		if failErr := p.SetFailed(genErr.Error()); failErr != nil {
			return failErr
		}
		// The failed status must land even when the job context is gone,
		// otherwise the project is stranded in processing.
		if updateErr := s.store.Update(context.WithoutCancel(ctx), p); updateErr != nil {
			return updateErr
		}
		return genErr
	}

	if err := p.SetCompleted(output); err != nil {
		return err
	}
	return s.store.Update(ctx, p)
}

// runEdit applies one validated operation to the project's current output.
// The source is reloaded at execution time so sequential operations compose:
// each operation sees the result of the previous one. Edit failures leave the
// project completed with its prior output intact.
func (s *Sequencer) runEdit(ctx context.Context, job *Job) error {
	p, err := s.store.GetByID(ctx, job.ProjectID)
	if err != nil {
		return err
	}
	if p.Status != project.StatusCompleted || p.Output == nil {
		return services.Wrap(services.ErrIllegalTransition, component, "run_edit",
			fmt.Sprintf("project %s is %s", job.ProjectID, p.Status), nil)
	}

	if err := s.transformer.Initialize(ctx); err != nil {
		return err
	}
	source, err := s.transformer.LoadSource(ctx, p.Output.VideoPath)
	if err != nil {
		return err
	}

	op := *job.Operation
	if err := plan.Validate(op, source.Duration); err != nil {
		return err
	}
	command, err := plan.Lower(op)
	if err != nil {
		return err
	}

	result, err := s.transformer.Execute(ctx, command)
	if err != nil {
		return err
	}

	if err := p.ReplaceOutput(project.Output{
		VideoPath:     result.OutputPath,
		ThumbnailPath: p.Output.ThumbnailPath,
		Duration:      result.Duration,
	}); err != nil {
		return err
	}
	return s.store.Update(ctx, p)
}

func sortJobs(jobs []Job) {
	for i := 1; i < len(jobs); i++ {
		for j := i; j > 0 && jobs[j].CreatedAt.Before(jobs[j-1].CreatedAt); j-- {
			jobs[j], jobs[j-1] = jobs[j-1], jobs[j]
		}
	}
}
