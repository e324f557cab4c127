// Package pipeline sequences the runtime preparation steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/embedpy/embedpy/internal/archive"
	"github.com/embedpy/embedpy/internal/copytree"
	"github.com/embedpy/embedpy/internal/execrun"
	"github.com/embedpy/embedpy/internal/manifest"
	"github.com/embedpy/embedpy/internal/pipdeps"
	"github.com/embedpy/embedpy/internal/pyruntime"
)

const (
	// PythonDirName is the interpreter tree under the resources root.
	PythonDirName = "python"
	// SitePackagesDirName is the isolated dependency target.
	SitePackagesDirName = "site-packages"
)

// Options configure one preparation run.
type Options struct {
	// ResourcesRoot is deleted and recreated on every run.
	ResourcesRoot string
	// ProjectRoot holds pyproject.toml and the optional bridge directory.
	ProjectRoot string
	// WorkDir is scratch space for archive extraction. Empty means a fresh
	// temp directory, removed when the run finishes.
	WorkDir string
	// Source selects the runtime origin.
	Source pyruntime.Source
	// Locator resolves Source; the zero value is production-ready.
	Locator pyruntime.Locator
	// Runner executes pip and the version probe.
	Runner execrun.Runner
	// Out receives the numbered progress lines and the fallback warning.
	Out io.Writer

	ExcludePatterns []string
	PipArgs         []string
	MinPython       string
}

// Result reports where the artifacts ended up.
type Result struct {
	PythonDir       string
	SitePackagesDir string
	ManifestPath    string
	UsedFallback    bool
}

// Run executes the pipeline: recreate the resources root, resolve and copy
// the runtime, install dependencies, then write the manifest. The manifest
// write is strictly last; any earlier error leaves no manifest behind. Steps
// never retry.
func Run(ctx context.Context, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.ResourcesRoot == "" {
		return Result{}, errors.New("resources root is required")
	}
	if opts.ProjectRoot == "" {
		return Result{}, errors.New("project root is required")
	}
	if opts.Runner == nil {
		opts.Runner = execrun.NewExecRunner()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.WorkDir == "" {
		scratch, err := os.MkdirTemp("", "embedpy-*")
		if err != nil {
			return Result{}, fmt.Errorf("create work dir: %w", err)
		}
		defer func() { _ = os.RemoveAll(scratch) }()
		opts.WorkDir = scratch
	}

	resources, err := filepath.Abs(opts.ResourcesRoot)
	if err != nil {
		return Result{}, fmt.Errorf("resolve resources root: %w", err)
	}
	if err := os.RemoveAll(resources); err != nil {
		return Result{}, fmt.Errorf("clear resources root: %w", err)
	}
	if err := os.MkdirAll(resources, 0o755); err != nil {
		return Result{}, fmt.Errorf("create resources root: %w", err)
	}

	pythonTarget := filepath.Join(resources, PythonDirName)
	sitePackages := filepath.Join(resources, SitePackagesDirName)
	result := Result{
		PythonDir:       pythonTarget,
		SitePackagesDir: sitePackages,
		ManifestPath:    filepath.Join(resources, manifest.Filename),
	}

	fmt.Fprintf(opts.Out, "[1/3] Preparing embedded python -> %s\n", pythonTarget)
	resolved, err := resolveRuntime(opts)
	if err != nil {
		return Result{}, err
	}
	result.UsedFallback = resolved.UsedFallback
	if opts.MinPython != "" {
		if err := pyruntime.CheckMinVersion(ctx, opts.Runner, resolved.Interpreter, opts.MinPython); err != nil {
			return Result{}, err
		}
	}
	if err := copytree.Copy(resolved.Dir, pythonTarget, copytree.Options{ExtraPatterns: opts.ExcludePatterns}); err != nil {
		return Result{}, fmt.Errorf("copy runtime: %w", err)
	}

	fmt.Fprintf(opts.Out, "[2/3] Installing project deps -> %s\n", sitePackages)
	installer := pipdeps.Installer{
		Runner:       opts.Runner,
		Interpreter:  resolved.Interpreter,
		ProjectRoot:  opts.ProjectRoot,
		ExtraPipArgs: opts.PipArgs,
	}
	if err := installer.Install(ctx, sitePackages); err != nil {
		return Result{}, err
	}

	if err := manifest.Write(result.ManifestPath, manifest.Manifest{
		Python:       pythonTarget,
		SitePackages: sitePackages,
	}); err != nil {
		return Result{}, err
	}
	fmt.Fprintf(opts.Out, "[3/3] Runtime manifest -> %s\n", result.ManifestPath)
	slog.Info("runtime bundle prepared",
		"python", pythonTarget, "site_packages", sitePackages, "fallback", result.UsedFallback)
	return result, nil
}

func resolveRuntime(opts Options) (pyruntime.Resolved, error) {
	locator := opts.Locator
	if locator.Extract == nil {
		locator.Extract = archive.Extract
	}
	if locator.Warn == nil {
		locator.Warn = func(format string, args ...any) {
			fmt.Fprintf(opts.Out, "[warn] "+format+"\n", args...)
		}
	}
	return locator.Resolve(opts.Source, opts.WorkDir)
}
