package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.Concurrency {
	case ConcurrencyPerProject, ConcurrencyGlobal:
	default:
		return fmt.Errorf("engine.concurrency must be %q or %q, got %q",
			ConcurrencyPerProject, ConcurrencyGlobal, c.Engine.Concurrency)
	}
	if c.Engine.TransformTimeout <= 0 {
		return errors.New("engine.transform_timeout must be positive")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	parts := strings.Split(c.Generation.Resolution, "x")
	if len(parts) != 2 {
		return fmt.Errorf("generation.resolution must look like 1280x720, got %q", c.Generation.Resolution)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
