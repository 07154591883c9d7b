package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/project"
	"clipforge/internal/sequencer"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var title string
	var script string
	var audioPath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new draft project",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := buildInput(script, audioPath)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				created, err := a.studio.CreateProject(runCtx, title, input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", created.ID, created.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Project title")
	cmd.Flags().StringVar(&script, "text", "", "Script for a text-driven project")
	cmd.Flags().StringVar(&audioPath, "audio", "", "Audio file for an audio-driven project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func buildInput(script, audioPath string) (project.Input, error) {
	hasScript := strings.TrimSpace(script) != ""
	hasAudio := strings.TrimSpace(audioPath) != ""
	switch {
	case hasScript && hasAudio:
		return project.Input{}, fmt.Errorf("--text and --audio are mutually exclusive")
	case hasScript:
		return project.Input{Kind: project.InputText, Content: script}, nil
	case hasAudio:
		return project.Input{Kind: project.InputAudio, Content: audioPath}, nil
	default:
		return project.Input{}, fmt.Errorf("one of --text or --audio is required")
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "start <project-id>",
		Short: "Start or retry video generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				job, started, err := a.studio.StartGeneration(runCtx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !started {
					fmt.Fprintln(out, "Project already completed; nothing to do")
					return nil
				}
				fmt.Fprintf(out, "Queued generation job %s\n", job.ID)
				if !wait {
					// close() still drains the job before the process exits.
					return nil
				}
				return waitForJob(runCtx, cmd, a, job.ID)
			})
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", true, "Wait for the job to finish")
	return cmd
}

func waitForJob(runCtx context.Context, cmd *cobra.Command, a *app, jobID string) error {
	job, err := a.studio.AwaitJob(runCtx, jobID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if job.Status == sequencer.JobFailed {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}
	fmt.Fprintf(out, "Job %s %s\n", job.ID, job.Status)
	return nil
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []project.Status
			if statusFilter != "" {
				status, ok := project.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFilter)
				}
				statuses = append(statuses, status)
			}
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				projects, err := a.studio.ListProjects(runCtx, statuses...)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{
						shortID(p.ID),
						p.Title,
						string(p.Status),
						formatDuration(p),
						p.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"ID", "TITLE", "STATUS", "DURATION", "UPDATED"}, rows, 4))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Filter by status (draft, processing, completed, failed)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				p, err := a.studio.GetProject(runCtx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:      %s\n", p.ID)
				fmt.Fprintf(out, "Title:   %s\n", p.Title)
				fmt.Fprintf(out, "Status:  %s\n", p.Status)
				fmt.Fprintf(out, "Input:   %s (%s)\n", summarizeInput(p.Input), p.Input.Kind)
				if p.Output != nil {
					fmt.Fprintf(out, "Video:   %s (%.2fs)\n", p.Output.VideoPath, p.Output.Duration)
					fmt.Fprintf(out, "Thumb:   %s\n", p.Output.ThumbnailPath)
				}
				if p.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:   %s\n", p.ErrorMessage)
				}
				if p.EditingData != nil {
					fmt.Fprintf(out, "Edits:   %d overlays, %d audio tracks, %d timeline entries, %d effects\n",
						len(p.EditingData.TextOverlays),
						len(p.EditingData.AudioTracks),
						len(p.EditingData.Timeline),
						len(p.EditingData.Effects))
				}

				jobs := a.studio.Jobs(p.ID)
				if len(jobs) > 0 {
					rows := make([][]string, 0, len(jobs))
					for _, job := range jobs {
						rows = append(rows, []string{shortID(job.ID), string(job.Kind), job.Label, string(job.Status)})
					}
					fmt.Fprintln(out, renderTable([]string{"JOB", "KIND", "LABEL", "STATUS"}, rows))
				}
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var completed bool
	var failed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove completed or failed projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []project.Status
			if completed {
				statuses = append(statuses, project.StatusCompleted)
			}
			if failed {
				statuses = append(statuses, project.StatusFailed)
			}
			if len(statuses) == 0 {
				return fmt.Errorf("pass --completed, --failed, or both")
			}
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				cleared, err := a.studio.Clear(runCtx, statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d project(s)\n", cleared)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Remove completed projects")
	cmd.Flags().BoolVar(&failed, "failed", false, "Remove failed projects")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(p *project.Project) string {
	if p.Output == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fs", p.Output.Duration)
}

func summarizeInput(input project.Input) string {
	content := strings.TrimSpace(input.Content)
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[:idx]
	}
	if len(content) > 50 {
		content = content[:50] + "..."
	}
	return content
}
