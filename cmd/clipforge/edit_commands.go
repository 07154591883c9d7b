package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipforge/internal/plan"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply editing operations to a completed project",
	}

	editCmd.AddCommand(newCutCommand(ctx))
	editCmd.AddCommand(newSpeedCommand(ctx))
	editCmd.AddCommand(newReverseCommand(ctx))
	editCmd.AddCommand(newFilterCommand(ctx))
	return editCmd
}

func submitEdit(ctx *commandContext, cmd *cobra.Command, projectID string, op plan.Operation, wait bool) error {
	return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
		job, err := a.studio.SubmitEdit(runCtx, projectID, op)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as job %s\n", job.Label, job.ID)
		if !wait {
			return nil
		}
		return waitForJob(runCtx, cmd, a, job.ID)
	})
}

func newCutCommand(ctx *commandContext) *cobra.Command {
	var start, end float64
	var wait bool

	cmd := &cobra.Command{
		Use:   "cut <project-id>",
		Short: "Keep only the segment between --start and --end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitEdit(ctx, cmd, args[0], plan.Operation{
				Kind:  plan.KindCut,
				Start: start,
				End:   end,
			}, wait)
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "Segment start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "Segment end in seconds")
	cmd.Flags().BoolVarP(&wait, "wait", "w", true, "Wait for the job to finish")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newSpeedCommand(ctx *commandContext) *cobra.Command {
	var factor float64
	var wait bool

	cmd := &cobra.Command{
		Use:   "speed <project-id>",
		Short: "Change playback speed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitEdit(ctx, cmd, args[0], plan.Operation{
				Kind:   plan.KindSpeed,
				Factor: factor,
			}, wait)
		},
	}

	cmd.Flags().Float64Var(&factor, "factor", 1, "Speed factor, e.g. 0.5 or 2")
	cmd.Flags().BoolVarP(&wait, "wait", "w", true, "Wait for the job to finish")
	_ = cmd.MarkFlagRequired("factor")
	return cmd
}

func newReverseCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "reverse <project-id>",
		Short: "Reverse video and audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitEdit(ctx, cmd, args[0], plan.Operation{Kind: plan.KindReverse}, wait)
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", true, "Wait for the job to finish")
	return cmd
}

func newFilterCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "filter <project-id> <name>",
		Short: "Apply a visual filter (" + strings.Join(plan.FilterNames(), ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitEdit(ctx, cmd, args[0], plan.Operation{
				Kind:   plan.KindFilter,
				Filter: args[1],
			}, wait)
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", true, "Wait for the job to finish")
	return cmd
}

func newFiltersCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "filters",
		Short:       "List available visual filters and speed presets",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Filters:")
			for _, name := range plan.FilterNames() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			fmt.Fprintln(out, "Speed presets:")
			for _, preset := range plan.SpeedPresets {
				fmt.Fprintf(out, "  x%g\n", preset)
			}
			return nil
		},
	}
}
