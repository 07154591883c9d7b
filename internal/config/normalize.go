package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeGeneration()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeEngine() {
	if strings.TrimSpace(c.Engine.FFmpegBinary) == "" {
		c.Engine.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Engine.FFprobeBinary) == "" {
		c.Engine.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Engine.TransformTimeout <= 0 {
		c.Engine.TransformTimeout = defaultTransformTimeout
	}
	c.Engine.Concurrency = strings.ToLower(strings.TrimSpace(c.Engine.Concurrency))
	if c.Engine.Concurrency == "" {
		c.Engine.Concurrency = defaultConcurrency
	}
}

func (c *Config) normalizeGeneration() {
	if c.Generation.ClipSeconds <= 0 {
		c.Generation.ClipSeconds = defaultClipSeconds
	}
	if strings.TrimSpace(c.Generation.Resolution) == "" {
		c.Generation.Resolution = defaultResolution
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.JobQueueDepth <= 0 {
		c.Workflow.JobQueueDepth = defaultJobQueueDepth
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
