package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/embedpy/embedpy/internal/execrun"
	"github.com/embedpy/embedpy/internal/manifest"
	"github.com/embedpy/embedpy/internal/pyruntime"
)

type fakeRunner struct {
	calls  []string
	fail   map[string]error
	output map[string]string
}

func (r *fakeRunner) key(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

func (r *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	_, err := r.Output(ctx, dir, name, args...)
	return err
}

func (r *fakeRunner) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	key := r.key(name, args)
	r.calls = append(r.calls, key)
	for prefix, err := range r.fail {
		if strings.HasPrefix(key, prefix) {
			return "", err
		}
	}
	for suffix, out := range r.output {
		if strings.HasSuffix(key, suffix) {
			return out, nil
		}
	}
	return "", nil
}

var _ execrun.Runner = (*fakeRunner)(nil)

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newRuntimeDir(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "runtime")
	writeExecutable(t, filepath.Join(root, "bin", "python3"))
	if err := os.MkdirAll(filepath.Join(root, "lib", "site-packages"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "lib", "os.py"), []byte("import sys\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return root
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	body := "[project]\nname = \"nanobot\"\nversion = \"0.1.0\"\n"
	if err := os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write pyproject: %v", err)
	}
	return root
}

func baseOptions(t *testing.T, runner execrun.Runner) Options {
	t.Helper()
	return Options{
		ResourcesRoot: filepath.Join(t.TempDir(), "resources"),
		ProjectRoot:   newProject(t),
		WorkDir:       t.TempDir(),
		Source:        pyruntime.DirSource(newRuntimeDir(t)),
		Locator:       pyruntime.Locator{GOOS: "linux"},
		Runner:        runner,
		Out:           &bytes.Buffer{},
	}
}

func TestRunHappyPath(t *testing.T) {
	runner := &fakeRunner{}
	opts := baseOptions(t, runner)
	out := &bytes.Buffer{}
	opts.Out = out

	result, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(result.PythonDir, "bin", "python3")); err != nil {
		t.Fatalf("interpreter missing in bundle: %v", err)
	}
	if _, err := os.Stat(filepath.Join(result.PythonDir, "lib", "site-packages")); !os.IsNotExist(err) {
		t.Fatalf("site-packages not excluded from runtime copy")
	}
	m, err := manifest.Load(result.ManifestPath)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if m.Python != result.PythonDir || m.SitePackages != result.SitePackagesDir {
		t.Fatalf("manifest=%+v result=%+v", m, result)
	}

	progress := out.String()
	for _, line := range []string{"[1/3]", "[2/3]", "[3/3]"} {
		if !strings.Contains(progress, line) {
			t.Fatalf("missing progress line %s in %q", line, progress)
		}
	}
}

func TestRunIsRepeatable(t *testing.T) {
	runner := &fakeRunner{}
	opts := baseOptions(t, runner)

	first, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	a, err := os.ReadFile(first.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}

	second, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	b, err := os.ReadFile(second.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("manifest differs across identical runs: %q vs %q", a, b)
	}
}

func TestRunRecreatesResourcesRoot(t *testing.T) {
	runner := &fakeRunner{}
	opts := baseOptions(t, runner)
	stale := filepath.Join(opts.ResourcesRoot, "stale.txt")
	if err := os.MkdirAll(opts.ResourcesRoot, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale: %v", err)
	}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale file survived the rebuild")
	}
}

func TestRunInstallFailureLeavesNoManifest(t *testing.T) {
	failure := fmt.Errorf("%w: pip install .: exit status 1", execrun.ErrSubprocess)
	runner := &fakeRunner{fail: map[string]error{}}
	opts := baseOptions(t, runner)
	interpreter := filepath.Join(opts.Source.Path, "bin", "python3")
	runner.fail[interpreter+" -m pip install ."] = failure

	_, err := Run(context.Background(), opts)
	if !errors.Is(err, execrun.ErrSubprocess) {
		t.Fatalf("err=%v want ErrSubprocess", err)
	}
	manifestPath := filepath.Join(opts.ResourcesRoot, manifest.Filename)
	if _, statErr := os.Stat(manifestPath); !os.IsNotExist(statErr) {
		t.Fatalf("manifest must not exist after a failed run")
	}
}

func TestRunMissingDirSourceFailsBeforeCopy(t *testing.T) {
	runner := &fakeRunner{}
	opts := baseOptions(t, runner)
	opts.Source = pyruntime.DirSource("/opt/missing")

	_, err := Run(context.Background(), opts)
	if !errors.Is(err, pyruntime.ErrSourceNotFound) {
		t.Fatalf("err=%v want ErrSourceNotFound", err)
	}
	if _, statErr := os.Stat(filepath.Join(opts.ResourcesRoot, PythonDirName)); !os.IsNotExist(statErr) {
		t.Fatalf("python target created despite missing source")
	}
}

func TestRunFallbackWarnsAndCompletes(t *testing.T) {
	runner := &fakeRunner{}
	opts := baseOptions(t, runner)
	runtimeDir := opts.Source.Path
	opts.Source = pyruntime.FallbackSource()
	opts.Locator = pyruntime.Locator{
		GOOS: "linux",
		LookPath: func(file string) (string, error) {
			if file == "python3" {
				return filepath.Join(runtimeDir, "bin", "python3"), nil
			}
			return "", errors.New("not found")
		},
	}
	out := &bytes.Buffer{}
	opts.Out = out

	result, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.UsedFallback {
		t.Fatalf("expected fallback marker")
	}
	if !strings.Contains(out.String(), "[warn]") {
		t.Fatalf("expected warning line, got %q", out.String())
	}
}

func TestRunMinPythonGate(t *testing.T) {
	runner := &fakeRunner{output: map[string]string{"--version": "Python 3.9.2\n"}}
	opts := baseOptions(t, runner)
	opts.MinPython = "3.11"

	_, err := Run(context.Background(), opts)
	if err == nil {
		t.Fatalf("expected version gate failure")
	}
	if _, statErr := os.Stat(filepath.Join(opts.ResourcesRoot, PythonDirName)); !os.IsNotExist(statErr) {
		t.Fatalf("copy must not run when the version gate fails")
	}
}
