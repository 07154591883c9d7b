package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
	"clipforge/internal/engine"
	"clipforge/internal/generate"
	"clipforge/internal/logging"
	"clipforge/internal/project"
	"clipforge/internal/sequencer"
	"clipforge/internal/studio"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app bundles the wired application for one command invocation.
type app struct {
	cfg    *config.Config
	store  *project.Store
	seq    *sequencer.Sequencer
	studio *studio.Studio
	logger *slog.Logger
}

func (a *app) close() {
	a.seq.Close()
	_ = a.store.Close()
}

// openApp wires the store, engine, sequencer, and facade. Verbose selects the
// configured logger; one-shot commands run quiet.
func (c *commandContext) openApp(ctx context.Context, verbose bool) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.NewNop()
	if verbose {
		logger, err = logging.NewFromConfig(cfg)
		if err != nil {
			return nil, err
		}
	}

	store, err := project.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	eng := engine.New(cfg)
	seq := sequencer.New(cfg, store, eng, generate.NewFromConfig(cfg), logger)
	return &app{
		cfg:    cfg,
		store:  store,
		seq:    seq,
		studio: studio.New(store, seq, logger),
		logger: logger,
	}, nil
}

func (c *commandContext) withApp(cmd *cobra.Command, verbose bool, fn func(context.Context, *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	application, err := c.openApp(ctx, verbose)
	if err != nil {
		return err
	}
	defer application.close()
	return fn(ctx, application)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
