// Package generate produces the initial video output for a project from its
// creation input. Text inputs render a titled clip, audio inputs render a
// waveform visualization over the original audio.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"clipforge/internal/config"
	"clipforge/internal/project"
	"clipforge/internal/services"
)

var commandContext = exec.CommandContext

const component = "generate"

// Generator produces output handles for a project.
type Generator interface {
	Generate(ctx context.Context, p *project.Project) (project.Output, error)
}

// NewFromConfig selects the generator implementation: a simulated one for
// development and tests, or the toolchain-backed renderer.
func NewFromConfig(cfg *config.Config) Generator {
	if cfg.Generation.Simulate {
		return NewSimulated(cfg)
	}
	return NewRenderer(cfg)
}

// Renderer drives ffmpeg to synthesize clips and extract thumbnails, and
// ffprobe to report the rendered duration.
type Renderer struct {
	ffmpeg    string
	ffprobe   string
	workspace string
	seconds   int
	size      string
}

// NewRenderer constructs a toolchain-backed generator.
func NewRenderer(cfg *config.Config) *Renderer {
	return &Renderer{
		ffmpeg:    cfg.Engine.FFmpegBinary,
		ffprobe:   cfg.Engine.FFprobeBinary,
		workspace: cfg.Paths.WorkspaceDir,
		seconds:   cfg.Generation.ClipSeconds,
		size:      cfg.Generation.Resolution,
	}
}

// Generate renders the project's input into a video and thumbnail.
func (r *Renderer) Generate(ctx context.Context, p *project.Project) (project.Output, error) {
	videoPath := filepath.Join(r.workspace, uuid.NewString()+".mp4")

	var args []string
	switch p.Input.Kind {
	case project.InputText:
		args = r.textArgs(p.Input.Content, videoPath)
	case project.InputAudio:
		args = r.audioArgs(p.Input.Content, videoPath)
	default:
		return project.Output{}, services.Wrap(services.ErrValidation, component, "generate",
			fmt.Sprintf("unknown input kind %q", p.Input.Kind), nil)
	}

	if err := r.run(ctx, args); err != nil {
		return project.Output{}, err
	}

	duration, err := r.probeDuration(ctx, videoPath)
	if err != nil {
		return project.Output{}, err
	}

	thumbnailPath := strings.TrimSuffix(videoPath, ".mp4") + ".jpg"
	if err := r.run(ctx, []string{"-y", "-ss", "1", "-i", videoPath, "-frames:v", "1", thumbnailPath}); err != nil {
		return project.Output{}, err
	}

	return project.Output{
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath,
		Duration:      duration,
	}, nil
}

func (r *Renderer) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := commandContext(ctx, r.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, services.Wrap(services.ErrUnsupportedFormat, component, "probe",
			strings.TrimSpace(stderr.String()), err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil || duration <= 0 {
		return 0, services.Wrap(services.ErrUnsupportedFormat, component, "probe",
			fmt.Sprintf("no usable duration in %q", strings.TrimSpace(stdout.String())), err)
	}
	return duration, nil
}

func (r *Renderer) textArgs(script, videoPath string) []string {
	title := drawtextEscape(firstLine(script))
	return []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=0x1f2937:s=%s:d=%d", r.size, r.seconds),
		"-vf", fmt.Sprintf("drawtext=text='%s':fontcolor=white:fontsize=48:x=(w-text_w)/2:y=(h-text_h)/2", title),
		"-pix_fmt", "yuv420p",
		videoPath,
	}
}

func (r *Renderer) audioArgs(audioPath, videoPath string) []string {
	return []string{
		"-y",
		"-i", audioPath,
		"-filter_complex", fmt.Sprintf("[0:a]showwaves=s=%s:mode=line:colors=white[v]", r.size),
		"-map", "[v]",
		"-map", "0:a",
		"-pix_fmt", "yuv420p",
		videoPath,
	}
}

func (r *Renderer) run(ctx context.Context, args []string) error {
	cmd := commandContext(ctx, r.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 200 {
			detail = detail[len(detail)-200:]
		}
		return services.Wrap(services.ErrTransformFailed, component, "render", detail, err)
	}
	return nil
}

// firstLine trims the script down to a drawable title.
func firstLine(script string) string {
	line := strings.TrimSpace(script)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	const maxTitle = 60
	if len(line) > maxTitle {
		line = line[:maxTitle]
	}
	return line
}

// drawtextEscape neutralizes characters with meaning inside drawtext values.
func drawtextEscape(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return replacer.Replace(text)
}

// Simulated skips the engine entirely, producing placeholder handles with the
// configured clip duration. Useful for development machines without ffmpeg.
type Simulated struct {
	workspace string
	seconds   int
}

// NewSimulated constructs the simulate-mode generator.
func NewSimulated(cfg *config.Config) *Simulated {
	return &Simulated{
		workspace: cfg.Paths.WorkspaceDir,
		seconds:   cfg.Generation.ClipSeconds,
	}
}

// Generate writes placeholder video and thumbnail files.
func (s *Simulated) Generate(ctx context.Context, p *project.Project) (project.Output, error) {
	if err := ctx.Err(); err != nil {
		return project.Output{}, err
	}

	base := filepath.Join(s.workspace, uuid.NewString())
	videoPath := base + ".mp4"
	thumbnailPath := base + ".jpg"
	if err := os.WriteFile(videoPath, []byte("simulated video\n"), 0o644); err != nil {
		return project.Output{}, fmt.Errorf("write simulated video: %w", err)
	}
	if err := os.WriteFile(thumbnailPath, []byte("simulated thumbnail\n"), 0o644); err != nil {
		return project.Output{}, fmt.Errorf("write simulated thumbnail: %w", err)
	}

	return project.Output{
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath,
		Duration:      float64(s.seconds),
	}, nil
}

var (
	_ Generator = (*Renderer)(nil)
	_ Generator = (*Simulated)(nil)
)
