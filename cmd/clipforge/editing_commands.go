package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipforge/internal/editing"
)

func newOverlayCommand(ctx *commandContext) *cobra.Command {
	overlayCmd := &cobra.Command{
		Use:   "overlay",
		Short: "Manage text overlays on a completed project",
	}

	overlayCmd.AddCommand(newOverlayAddCommand(ctx))
	overlayCmd.AddCommand(newOverlayRemoveCommand(ctx))
	return overlayCmd
}

func newOverlayAddCommand(ctx *commandContext) *cobra.Command {
	var text, font, color string
	var size, x, y float64

	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a text overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				id, err := a.studio.AddTextOverlay(runCtx, args[0], editing.TextOverlay{
					Text:     text,
					Font:     font,
					Size:     size,
					Color:    color,
					Position: editing.Position{X: x, Y: y},
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added overlay %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Overlay text")
	cmd.Flags().StringVar(&font, "font", "Inter", "Font family")
	cmd.Flags().StringVar(&color, "color", "#ffffff", "Text color")
	cmd.Flags().Float64Var(&size, "size", 24, "Font size")
	cmd.Flags().Float64Var(&x, "x", 50, "Horizontal position, 0-100")
	cmd.Flags().Float64Var(&y, "y", 50, "Vertical position, 0-100")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newOverlayRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <project-id> <overlay-id>",
		Short: "Remove a text overlay",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				if err := a.studio.RemoveTextOverlay(runCtx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Removed overlay")
				return nil
			})
		},
	}
}

func newAudioCommand(ctx *commandContext) *cobra.Command {
	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "Manage audio tracks on a completed project",
	}

	audioCmd.AddCommand(newAudioAddCommand(ctx))
	audioCmd.AddCommand(newAudioVolumeCommand(ctx))
	audioCmd.AddCommand(newAudioRemoveCommand(ctx))
	return audioCmd
}

func newAudioAddCommand(ctx *commandContext) *cobra.Command {
	var url, kind string
	var volume, start, end float64

	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Layer an audio track over the output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioKind, ok := editing.ParseAudioKind(kind)
			if !ok {
				return fmt.Errorf("unknown audio kind %q (voice, music, effect)", kind)
			}
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				id, err := a.studio.AddAudioTrack(runCtx, args[0], editing.AudioTrack{
					Kind:      audioKind,
					URL:       url,
					Volume:    volume,
					StartTime: start,
					EndTime:   end,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added audio track %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Audio source path or URL")
	cmd.Flags().StringVar(&kind, "kind", "music", "Track kind (voice, music, effect)")
	cmd.Flags().Float64Var(&volume, "volume", 1, "Volume, 0-1")
	cmd.Flags().Float64Var(&start, "start", 0, "Start offset in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "End offset in seconds")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newAudioVolumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "volume <project-id> <track-id> <volume>",
		Short: "Set an audio track's volume (0-1)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			volume, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("parse volume %q: %w", args[2], err)
			}
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				if err := a.studio.SetAudioVolume(runCtx, args[0], args[1], volume); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Volume updated")
				return nil
			})
		},
	}
}

func newAudioRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <project-id> <track-id>",
		Short: "Remove an audio track",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				if err := a.studio.RemoveAudioTrack(runCtx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Removed audio track")
				return nil
			})
		},
	}
}
