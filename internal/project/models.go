package project

import (
	"strings"
	"time"

	"clipforge/internal/editing"
	"clipforge/internal/services"
)

// Status represents the lifecycle of a project.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusDraft,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// legalTransitions holds the generation-phase state machine. Completed is
// terminal for generation; editing operations run against completed projects
// without changing status.
var legalTransitions = map[Status][]Status{
	StatusDraft:      {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusProcessing},
	StatusCompleted:  {},
}

// InputKind distinguishes the two creation inputs.
type InputKind string

const (
	InputText  InputKind = "text"
	InputAudio InputKind = "audio"
)

// Input is the immutable creation payload: a script for text projects, a
// source reference for audio projects.
type Input struct {
	Kind    InputKind `json:"kind"`
	Content string    `json:"content"`
}

// Output holds the handles produced by a successful generation or edit.
type Output struct {
	VideoPath     string  `json:"video_path"`
	ThumbnailPath string  `json:"thumbnail_path"`
	Duration      float64 `json:"duration"`
}

// Project is the root unit of work: one video generation and edit task.
type Project struct {
	ID           string
	Title        string
	Status       Status
	Input        Input
	Output       *Output
	EditingData  *editing.Data
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParseInputKind converts a string into a known InputKind.
func ParseInputKind(value string) (InputKind, bool) {
	kind := InputKind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case InputText, InputAudio:
		return kind, true
	}
	return "", false
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change, enforcing the state machine. Callers
// that need the idempotent start guard should check CanStartGeneration first.
func (p *Project) Transition(to Status) error {
	if !CanTransition(p.Status, to) {
		return services.Wrap(services.ErrIllegalTransition, "project", "transition",
			string(p.Status)+" -> "+string(to), nil)
	}
	p.Status = to
	return nil
}

// CanStartGeneration reports whether "start generation" applies. Starting a
// processing or completed project is a no-op, not an error.
func (p *Project) CanStartGeneration() bool {
	return p.Status == StatusDraft || p.Status == StatusFailed
}

// SetProcessing marks the project as generating, clearing any prior error.
func (p *Project) SetProcessing() error {
	if err := p.Transition(StatusProcessing); err != nil {
		return err
	}
	p.ErrorMessage = ""
	return nil
}

// SetCompleted records a successful generation with its output handles.
func (p *Project) SetCompleted(output Output) error {
	if err := p.Transition(StatusCompleted); err != nil {
		return err
	}
	p.Output = &output
	p.ErrorMessage = ""
	if p.EditingData == nil {
		p.EditingData = editing.New()
	}
	return nil
}

// SetFailed records a generation failure. No partial output is ever exposed.
func (p *Project) SetFailed(message string) error {
	if err := p.Transition(StatusFailed); err != nil {
		return err
	}
	p.Output = nil
	p.EditingData = nil
	p.ErrorMessage = message
	return nil
}

// ReplaceOutput swaps in the result of a completed editing operation. Status
// stays completed; editing failures never regress the lifecycle.
func (p *Project) ReplaceOutput(output Output) error {
	if p.Status != StatusCompleted {
		return services.Wrap(services.ErrIllegalTransition, "project", "replace_output",
			"project is not completed", nil)
	}
	p.Output = &output
	return nil
}

// SourceDuration returns the duration of the current output, or zero when the
// project has no output yet.
func (p *Project) SourceDuration() float64 {
	if p.Output == nil {
		return 0
	}
	return p.Output.Duration
}
