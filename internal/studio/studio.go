// Package studio is the application facade. It exposes the project lifecycle,
// editing metadata mutations, and job submission as one coherent API consumed
// by the CLI and the HTTP layer.
package studio

import (
	"context"
	"fmt"
	"log/slog"

	"clipforge/internal/editing"
	"clipforge/internal/logging"
	"clipforge/internal/plan"
	"clipforge/internal/project"
	"clipforge/internal/sequencer"
	"clipforge/internal/services"
)

const component = "studio"

// Studio coordinates the store and the sequencer.
type Studio struct {
	store  *project.Store
	seq    *sequencer.Sequencer
	logger *slog.Logger
}

// New constructs the facade.
func New(store *project.Store, seq *sequencer.Sequencer, logger *slog.Logger) *Studio {
	return &Studio{
		store:  store,
		seq:    seq,
		logger: logging.NewComponentLogger(logger, component),
	}
}

// CreateProject validates input and persists a new draft project.
func (s *Studio) CreateProject(ctx context.Context, title string, input project.Input) (*project.Project, error) {
	created, err := s.store.NewProject(ctx, title, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("project created",
		slog.String(logging.FieldProjectID, created.ID),
		slog.String("input_kind", string(input.Kind)))
	return created, nil
}

// GetProject loads one project.
func (s *Studio) GetProject(ctx context.Context, id string) (*project.Project, error) {
	return s.store.GetByID(ctx, id)
}

// ListProjects returns projects most recent first, optionally filtered.
func (s *Studio) ListProjects(ctx context.Context, statuses ...project.Status) ([]*project.Project, error) {
	return s.store.List(ctx, statuses...)
}

// StartGeneration queues generation for a draft or failed project. It is
// idempotent: a project already processing returns its active job, a completed
// project is a no-op with started=false.
func (s *Studio) StartGeneration(ctx context.Context, id string) (sequencer.Job, bool, error) {
	return s.seq.SubmitGeneration(ctx, id)
}

// SubmitEdit validates and queues one editing operation.
func (s *Studio) SubmitEdit(ctx context.Context, id string, op plan.Operation) (sequencer.Job, error) {
	return s.seq.SubmitEdit(ctx, id, op)
}

// AwaitJob blocks until the job finishes or the context ends.
func (s *Studio) AwaitJob(ctx context.Context, jobID string) (sequencer.Job, error) {
	return s.seq.Await(ctx, jobID)
}

// Jobs lists the jobs recorded for a project, oldest first.
func (s *Studio) Jobs(projectID string) []sequencer.Job {
	return s.seq.Jobs(projectID)
}

// AddTextOverlay attaches a text overlay to a completed project.
func (s *Studio) AddTextOverlay(ctx context.Context, projectID string, overlay editing.TextOverlay) (string, error) {
	var id string
	err := s.mutateEditing(ctx, projectID, func(p *project.Project) error {
		var mErr error
		id, mErr = p.EditingData.AddTextOverlay(overlay)
		return mErr
	})
	return id, err
}

// UpdateTextOverlay replaces an existing overlay, keeping its identifier.
func (s *Studio) UpdateTextOverlay(ctx context.Context, projectID, overlayID string, overlay editing.TextOverlay) error {
	return s.mutateEditing(ctx, projectID, func(p *project.Project) error {
		return p.EditingData.UpdateTextOverlay(overlayID, overlay)
	})
}

// RemoveTextOverlay deletes an overlay.
func (s *Studio) RemoveTextOverlay(ctx context.Context, projectID, overlayID string) error {
	return s.mutateEditing(ctx, projectID, func(p *project.Project) error {
		return p.EditingData.RemoveTextOverlay(overlayID)
	})
}

// AddAudioTrack layers an audio track over a completed project.
func (s *Studio) AddAudioTrack(ctx context.Context, projectID string, track editing.AudioTrack) (string, error) {
	var id string
	err := s.mutateEditing(ctx, projectID, func(p *project.Project) error {
		var mErr error
		id, mErr = p.EditingData.AddAudioTrack(track, p.SourceDuration())
		return mErr
	})
	return id, err
}

// SetAudioVolume adjusts a track's volume within [0, 1].
func (s *Studio) SetAudioVolume(ctx context.Context, projectID, trackID string, volume float64) error {
	return s.mutateEditing(ctx, projectID, func(p *project.Project) error {
		return p.EditingData.SetAudioVolume(trackID, volume)
	})
}

// RemoveAudioTrack deletes an audio track.
func (s *Studio) RemoveAudioTrack(ctx context.Context, projectID, trackID string) error {
	return s.mutateEditing(ctx, projectID, func(p *project.Project) error {
		return p.EditingData.RemoveAudioTrack(trackID)
	})
}

// AddTimelineTrack appends a timeline entry to a completed project.
func (s *Studio) AddTimelineTrack(ctx context.Context, projectID string, track editing.TimelineTrack) (string, error) {
	var id string
	err := s.mutateEditing(ctx, projectID, func(p *project.Project) error {
		var mErr error
		id, mErr = p.EditingData.AddTimelineTrack(track, p.SourceDuration())
		return mErr
	})
	return id, err
}

// AddEffect appends a named effect to a completed project.
func (s *Studio) AddEffect(ctx context.Context, projectID string, effect editing.Effect) (string, error) {
	var id string
	err := s.mutateEditing(ctx, projectID, func(p *project.Project) error {
		var mErr error
		id, mErr = p.EditingData.AddEffect(effect)
		return mErr
	})
	return id, err
}

// mutateEditing loads a completed project, applies one metadata mutation, and
// persists the result. Editing metadata only attaches to projects with output.
func (s *Studio) mutateEditing(ctx context.Context, projectID string, mutate func(*project.Project) error) error {
	p, err := s.store.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p.Status != project.StatusCompleted || p.Output == nil {
		return services.Wrap(services.ErrIllegalTransition, component, "mutate_editing",
			fmt.Sprintf("project %s is %s", projectID, p.Status), nil)
	}
	if p.EditingData == nil {
		p.EditingData = editing.New()
	}
	if err := mutate(p); err != nil {
		return err
	}
	return s.store.Update(ctx, p)
}

// ResetStuckProcessing fails projects left processing by an unclean shutdown.
func (s *Studio) ResetStuckProcessing(ctx context.Context) (int64, error) {
	reset, err := s.store.ResetStuckProcessing(ctx)
	if err != nil {
		return 0, err
	}
	if reset > 0 {
		s.logger.Warn("reset interrupted projects", slog.Int64("count", reset))
	}
	return reset, nil
}

// Clear removes projects in the given statuses.
func (s *Studio) Clear(ctx context.Context, statuses ...project.Status) (int64, error) {
	return s.store.Clear(ctx, statuses...)
}

// Stats returns project counts per status.
func (s *Studio) Stats(ctx context.Context) (map[project.Status]int, error) {
	return s.store.Stats(ctx)
}

// Health verifies the backing store responds.
func (s *Studio) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}
