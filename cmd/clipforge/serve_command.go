package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"clipforge/internal/httpapi"
	"clipforge/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				lock := flock.New(a.cfg.LockPath())
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire instance lock: %w", err)
				}
				if !locked {
					return fmt.Errorf("another clipforge instance holds %s", a.cfg.LockPath())
				}
				defer func() {
					_ = lock.Unlock()
				}()

				if reset, err := a.studio.ResetStuckProcessing(runCtx); err != nil {
					return err
				} else if reset > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Reset %d interrupted project(s) to failed\n", reset)
				}

				server := httpapi.New(a.studio, a.cfg.Paths.APIBind, a.logger)
				if err := server.Start(); err != nil {
					return fmt.Errorf("start api server: %w", err)
				}
				a.logger.Info("serving", logging.String("bind", a.cfg.Paths.APIBind))

				quit := make(chan os.Signal, 1)
				signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
				select {
				case <-quit:
				case <-runCtx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
		},
	}
}
