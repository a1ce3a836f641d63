package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/mallet/pkg/part"
	"github.com/chazu/mallet/pkg/shape"
)

// execRoot runs the root command with args and returns stdout, stderr and
// the exit code.
func execRoot(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	code := execute(cmd)
	return out.String(), errOut.String(), code
}

func TestVersionCmd(t *testing.T) {
	out, _, code := execRoot(t, "version")
	if code != 0 {
		t.Fatalf("version exited %d", code)
	}
	if !strings.Contains(out, "mallet dev") {
		t.Errorf("expected output to contain 'mallet dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, _, _ := execRoot(t, "version")
	if !strings.Contains(out, "mallet 1.0.0") {
		t.Errorf("expected output to contain 'mallet 1.0.0', got: %s", out)
	}
	if !strings.Contains(out, "built: 2026-01-01") {
		t.Errorf("expected output to contain 'built: 2026-01-01', got: %s", out)
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, _, code := execRoot(t, "--help")
	if code != 0 {
		t.Fatalf("help exited %d", code)
	}
	for _, sub := range []string{"run", "validate", "version", "--config", "--verbose"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing %q", sub)
		}
	}
}

func TestRunCmdWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "model.json")
	stlPath := filepath.Join(dir, "model.stl")

	out, errOut, code := execRoot(t, "run", "examples/gallery.mallet", "--json", jsonPath, "--stl", stlPath)
	if code != 0 {
		t.Fatalf("run exited %d: %s", code, errOut)
	}
	if !strings.Contains(out, "6 part(s)") {
		t.Errorf("unexpected summary: %s", out)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var parts []part.Part
	if err := json.Unmarshal(data, &parts); err != nil {
		t.Fatalf("json output: %v", err)
	}
	if len(parts) != 6 || parts[0].Kind != shape.Box {
		t.Errorf("unexpected parts: %+v", parts)
	}

	if info, err := os.Stat(stlPath); err != nil || info.Size() <= 84 {
		t.Errorf("stl output missing or empty: %v", err)
	}

	// The JSON output is a valid starting model and passes validation.
	out, errOut, code = execRoot(t, "validate", jsonPath)
	if code != 0 {
		t.Fatalf("validate exited %d: %s %s", code, out, errOut)
	}
	if !strings.Contains(out, "6 part(s) ok") {
		t.Errorf("unexpected validate output: %s", out)
	}

	script := filepath.Join(dir, "more.mallet")
	if err := os.WriteFile(script, []byte("(add :cone :at (vec3 0 5 0))"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, errOut, code = execRoot(t, "run", script, "--model", jsonPath)
	if code != 0 {
		t.Fatalf("run --model exited %d: %s", code, errOut)
	}
	if !strings.Contains(out, "7 part(s)") {
		t.Errorf("unexpected summary: %s", out)
	}
}

func TestRunCmdReportsScriptErrors(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bad.mallet")
	if err := os.WriteFile(script, []byte("(add :box)\n(remove 3)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, errOut, code := execRoot(t, "run", script)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "bad.mallet") {
		t.Errorf("stderr should name the script: %s", errOut)
	}
}

func TestRunCmdMissingScript(t *testing.T) {
	_, errOut, code := execRoot(t, "run", filepath.Join(t.TempDir(), "nope.mallet"))
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "read script") {
		t.Errorf("unexpected stderr: %s", errOut)
	}
}

func TestRunCmdBadConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "mallet.yaml")
	if err := os.WriteFile(cfg, []byte("kernel: cgal\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, errOut, code := execRoot(t, "--config", cfg, "run", "examples/gallery.mallet")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "kernel") {
		t.Errorf("unexpected stderr: %s", errOut)
	}
}

func TestValidateCmdReportsErrors(t *testing.T) {
	p := part.New(shape.Box, part.StandardDefaults(), 0)
	q := p
	q.Kind = shape.Custom
	q.ID = "q"
	data, _ := json.Marshal([]part.Part{p, q})

	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, code := execRoot(t, "validate", path)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out, "no baked mesh") {
		t.Errorf("unexpected output: %s", out)
	}
}
