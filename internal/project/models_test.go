package project_test

import (
	"errors"
	"testing"

	"clipforge/internal/project"
	"clipforge/internal/services"
)

func TestParseStatus(t *testing.T) {
	for _, status := range project.AllStatuses() {
		parsed, ok := project.ParseStatus(" " + string(status) + " ")
		if !ok || parsed != status {
			t.Fatalf("ParseStatus(%q) = %q, %v", status, parsed, ok)
		}
	}
	if _, ok := project.ParseStatus("archived"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestTransitionLegality(t *testing.T) {
	cases := []struct {
		from, to project.Status
		legal    bool
	}{
		{project.StatusDraft, project.StatusProcessing, true},
		{project.StatusProcessing, project.StatusCompleted, true},
		{project.StatusProcessing, project.StatusFailed, true},
		{project.StatusFailed, project.StatusProcessing, true},
		{project.StatusDraft, project.StatusCompleted, false},
		{project.StatusCompleted, project.StatusProcessing, false},
		{project.StatusCompleted, project.StatusFailed, false},
		{project.StatusFailed, project.StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := project.CanTransition(tc.from, tc.to); got != tc.legal {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.legal)
		}
	}
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	p := &project.Project{Status: project.StatusDraft}
	if err := p.Transition(project.StatusCompleted); !errors.Is(err, services.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition error, got %v", err)
	}
	if p.Status != project.StatusDraft {
		t.Fatalf("status mutated on rejected transition: %s", p.Status)
	}
}

func TestSetCompletedAttachesOutputAndEditingData(t *testing.T) {
	p := &project.Project{Status: project.StatusProcessing}
	output := project.Output{VideoPath: "out/clip.mp4", ThumbnailPath: "out/thumb.jpg", Duration: 10}
	if err := p.SetCompleted(output); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	if p.Output == nil || p.Output.VideoPath != "out/clip.mp4" {
		t.Fatalf("unexpected output: %#v", p.Output)
	}
	if p.EditingData == nil {
		t.Fatal("expected editing data to be initialized on completion")
	}
}

func TestSetFailedClearsOutput(t *testing.T) {
	p := &project.Project{Status: project.StatusProcessing}
	if err := p.SetCompleted(project.Output{VideoPath: "out/clip.mp4", Duration: 5}); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}

	retry := &project.Project{Status: project.StatusProcessing}
	if err := retry.SetFailed("engine exploded"); err != nil {
		t.Fatalf("SetFailed failed: %v", err)
	}
	if retry.Output != nil {
		t.Fatal("failed project must not expose output")
	}
	if retry.ErrorMessage != "engine exploded" {
		t.Fatalf("unexpected error message %q", retry.ErrorMessage)
	}
	if !retry.CanStartGeneration() {
		t.Fatal("failed project should be retryable")
	}
}

func TestReplaceOutputRequiresCompleted(t *testing.T) {
	p := &project.Project{Status: project.StatusDraft}
	err := p.ReplaceOutput(project.Output{VideoPath: "out/edit.mp4", Duration: 5})
	if !errors.Is(err, services.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition error, got %v", err)
	}
}

func TestStartGenerationGuard(t *testing.T) {
	for _, tc := range []struct {
		status project.Status
		want   bool
	}{
		{project.StatusDraft, true},
		{project.StatusFailed, true},
		{project.StatusProcessing, false},
		{project.StatusCompleted, false},
	} {
		p := &project.Project{Status: tc.status}
		if got := p.CanStartGeneration(); got != tc.want {
			t.Errorf("CanStartGeneration(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}
