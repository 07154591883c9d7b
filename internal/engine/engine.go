// Package engine wraps the external ffmpeg/ffprobe toolchain behind a narrow
// adapter. The adapter holds one loaded source at a time and serializes its
// executions; callers that want parallelism run multiple adapters.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

var commandContext = exec.CommandContext

const component = "engine"

// Source is a media input that has been probed and admitted by the adapter.
type Source struct {
	Path     string
	Duration float64
}

// Command describes one ffmpeg invocation against the loaded source. PreInput
// arguments go before -i, PostInput after it. The adapter supplies the input
// and output paths.
type Command struct {
	PreInput  []string
	PostInput []string
	OutputExt string
}

// Result is the product of a successful execution.
type Result struct {
	OutputPath string
	Duration   float64
}

// Engine adapts ffmpeg for transformations and ffprobe for inspection.
type Engine struct {
	ffmpeg    string
	ffprobe   string
	workspace string
	timeout   time.Duration

	mu     sync.Mutex
	ready  bool
	source *Source
}

// New constructs an adapter from configuration. Initialize must run before
// any source is loaded.
func New(cfg *config.Config) *Engine {
	return &Engine{
		ffmpeg:    cfg.Engine.FFmpegBinary,
		ffprobe:   cfg.Engine.FFprobeBinary,
		workspace: cfg.Paths.WorkspaceDir,
		timeout:   time.Duration(cfg.Engine.TransformTimeout) * time.Second,
	}
}

// Initialize verifies both binaries respond. It is idempotent: once the
// adapter is ready, repeated calls return immediately.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ready {
		return nil
	}
	for _, binary := range []string{e.ffmpeg, e.ffprobe} {
		cmd := commandContext(ctx, binary, "-version")
		if err := cmd.Run(); err != nil {
			return services.Wrap(services.ErrEngineNotReady, component, "initialize",
				fmt.Sprintf("probe %s", binary), err)
		}
	}
	e.ready = true
	return nil
}

// Ready reports whether Initialize has succeeded.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// LoadSource probes a media file and makes it the adapter's current source.
// Files the toolchain cannot read are rejected as unsupported.
func (e *Engine) LoadSource(ctx context.Context, path string) (Source, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return Source{}, services.Wrap(services.ErrEngineNotReady, component, "load_source", path, nil)
	}

	duration, err := e.probeDuration(ctx, path)
	if err != nil {
		return Source{}, err
	}

	source := Source{Path: path, Duration: duration}
	e.source = &source
	return source, nil
}

// CurrentSource returns the loaded source, if any.
func (e *Engine) CurrentSource() (Source, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source == nil {
		return Source{}, false
	}
	return *e.source, true
}

// Execute runs one command against the loaded source, bounded by the
// configured transform timeout. On success the output becomes a fresh file in
// the workspace; the loaded source is left untouched.
func (e *Engine) Execute(ctx context.Context, command Command) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return Result{}, services.Wrap(services.ErrEngineNotReady, component, "execute", "", nil)
	}
	if e.source == nil {
		return Result{}, services.Wrap(services.ErrEngineNotReady, component, "execute", "no source loaded", nil)
	}

	ext := command.OutputExt
	if ext == "" {
		ext = ".mp4"
	}
	outputPath := filepath.Join(e.workspace, uuid.NewString()+ext)

	args := make([]string, 0, len(command.PreInput)+len(command.PostInput)+4)
	args = append(args, "-y")
	args = append(args, command.PreInput...)
	args = append(args, "-i", e.source.Path)
	args = append(args, command.PostInput...)
	args = append(args, outputPath)

	runCtx := ctx
	var cancel context.CancelFunc
	if e.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := commandContext(runCtx, e.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrTransformTimeout, component, "execute",
				fmt.Sprintf("exceeded %s", e.timeout), err)
		}
		return Result{}, services.Wrap(services.ErrTransformFailed, component, "execute",
			stderrTail(stderr.String()), err)
	}

	duration, err := e.probeDuration(ctx, outputPath)
	if err != nil {
		return Result{}, err
	}
	return Result{OutputPath: outputPath, Duration: duration}, nil
}

// Unload drops the current source. The adapter stays initialized.
func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = nil
}

// probeDuration must be called with e.mu held.
func (e *Engine) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := commandContext(ctx, e.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, services.Wrap(services.ErrUnsupportedFormat, component, "probe",
			stderrTail(stderr.String()), err)
	}

	raw := strings.TrimSpace(stdout.String())
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil || duration <= 0 {
		return 0, services.Wrap(services.ErrUnsupportedFormat, component, "probe",
			fmt.Sprintf("no usable duration in %q", raw), err)
	}
	return duration, nil
}

func stderrTail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		return ""
	}
	const keep = 3
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.Join(lines, " | ")
}
