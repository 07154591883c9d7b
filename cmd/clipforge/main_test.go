package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	path := filepath.Join(root, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
workspace_dir = %q
log_dir = %q

[generation]
simulate = true
clip_seconds = 10
`,
		filepath.Join(root, "data"),
		filepath.Join(root, "workspace"),
		filepath.Join(root, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildInput(t *testing.T) {
	if _, err := buildInput("", ""); err == nil {
		t.Fatal("expected error when no input given")
	}
	if _, err := buildInput("script", "audio.mp3"); err == nil {
		t.Fatal("expected error when both inputs given")
	}
	input, err := buildInput("script", "")
	if err != nil || input.Kind != "text" {
		t.Fatalf("unexpected input %#v err %v", input, err)
	}
}

func TestCreateStartListFlow(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, configPath, "create", "--title", "Promo", "--text", "sunrise script")
	if err != nil {
		t.Fatalf("create failed: %v (%s)", err, out)
	}
	fields := strings.Fields(out)
	if len(fields) < 3 {
		t.Fatalf("unexpected create output: %s", out)
	}
	projectID := fields[2]

	out, err = runCommand(t, configPath, "start", projectID)
	if err != nil {
		t.Fatalf("start failed: %v (%s)", err, out)
	}
	if !strings.Contains(out, "succeeded") {
		t.Fatalf("expected succeeded job, got: %s", out)
	}

	out, err = runCommand(t, configPath, "list")
	if err != nil {
		t.Fatalf("list failed: %v (%s)", err, out)
	}
	if !strings.Contains(out, "Promo") || !strings.Contains(out, "completed") {
		t.Fatalf("unexpected list output: %s", out)
	}

	out, err = runCommand(t, configPath, "show", projectID)
	if err != nil {
		t.Fatalf("show failed: %v (%s)", err, out)
	}
	if !strings.Contains(out, "Status:  completed") {
		t.Fatalf("unexpected show output: %s", out)
	}
}

func TestStartCompletedProjectIsNoOp(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCommand(t, configPath, "create", "--title", "Once", "--text", "script")
	if err != nil {
		t.Fatalf("create failed: %v (%s)", err, out)
	}
	projectID := strings.Fields(out)[2]

	if out, err = runCommand(t, configPath, "start", projectID); err != nil {
		t.Fatalf("start failed: %v (%s)", err, out)
	}
	out, err = runCommand(t, configPath, "start", projectID)
	if err != nil {
		t.Fatalf("restart failed: %v (%s)", err, out)
	}
	if !strings.Contains(out, "already completed") {
		t.Fatalf("expected no-op message, got: %s", out)
	}
}

func TestFiltersCommand(t *testing.T) {
	out, err := runCommand(t, writeTestConfig(t), "filters")
	if err != nil {
		t.Fatalf("filters failed: %v", err)
	}
	for _, name := range []string{"Cinematic", "Vintage", "Noir", "Vibrant"} {
		if !strings.Contains(out, name) {
			t.Fatalf("missing filter %s in output: %s", name, out)
		}
	}
}
