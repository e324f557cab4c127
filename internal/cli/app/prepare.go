package app

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/embedpy/embedpy/internal/bundleconfig"
	"github.com/embedpy/embedpy/internal/cli/output"
	"github.com/embedpy/embedpy/internal/pipeline"
	"github.com/embedpy/embedpy/internal/pyruntime"
	"github.com/embedpy/embedpy/internal/runenv"
)

const defaultResourcesDir = "resources"

func prepareFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "resources", Usage: "output resources root (recreated on every run)"},
		&cli.StringFlag{Name: "project", Value: ".", Usage: "project root holding pyproject.toml"},
		&cli.StringFlag{Name: "python-dir", Usage: "already-unpacked runtime directory (overrides " + runenv.PythonDirEnv + ")"},
		&cli.StringFlag{Name: "python-archive", Usage: "zip or tar.gz runtime archive (overrides " + runenv.PythonArchiveEnv + ")"},
		&cli.StringFlag{Name: "work-dir", Usage: "scratch directory for archive extraction"},
		&cli.StringFlag{Name: "min-python", Usage: "fail when the interpreter is older than this version"},
		&cli.StringSliceFlag{Name: "exclude", Usage: "extra gitignore-style patterns skipped during the runtime copy"},
	}
}

func newPrepareCommand(deps Dependencies) *cli.Command {
	flags := append(prepareFlags(),
		&cli.BoolFlag{Name: "json", Usage: "emit a JSON result envelope on stdout"},
	)
	return &cli.Command{
		Name:  "prepare",
		Usage: "build the embeddable runtime bundle and write its manifest",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPrepare(ctx, cmd, deps)
		},
	}
}

func runPrepare(ctx context.Context, cmd *cli.Command, deps Dependencies) error {
	start := time.Now()
	jsonMode := cmd.Bool("json")
	meta := output.NewMeta("prepare", deps.Version)

	opts, err := buildPipelineOptions(cmd, deps, jsonMode)
	if err != nil {
		return respondPrepareError(cmd, deps, meta, start, err)
	}
	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		return respondPrepareError(cmd, deps, meta, start, err)
	}
	if jsonMode {
		meta = output.WithDuration(meta, start)
		return output.WriteSuccess(deps.Stdout, meta, output.PrepareResponse{
			Python:       result.PythonDir,
			SitePackages: result.SitePackagesDir,
			Manifest:     result.ManifestPath,
			UsedFallback: result.UsedFallback,
		})
	}
	return nil
}

func respondPrepareError(cmd *cli.Command, deps Dependencies, meta output.Meta, start time.Time, err error) error {
	if cmd.Bool("json") {
		meta = output.WithDuration(meta, start)
		if writeErr := output.WriteError(deps.Stdout, meta, errorCode(err), err.Error()); writeErr != nil {
			return writeErr
		}
		return cli.Exit("", 1)
	}
	return err
}

// buildPipelineOptions merges flags, environment and the optional project
// config file. Flags win over config; explicit flags win over environment.
func buildPipelineOptions(cmd *cli.Command, deps Dependencies, jsonMode bool) (pipeline.Options, error) {
	projectRoot := cmd.String("project")
	cfg, err := bundleconfig.LoadFromDir(projectRoot)
	if err != nil {
		return pipeline.Options{}, err
	}

	resources := cmd.String("resources")
	if resources == "" {
		resources = cfg.Resources
	}
	if resources == "" {
		resources = defaultResourcesDir
	}

	workDir := cmd.String("work-dir")
	if workDir == "" {
		workDir = runenv.WorkDir()
	}

	minPython := cmd.String("min-python")
	if minPython == "" {
		minPython = cfg.MinPython
	}

	source := pyruntime.SourceFromEnv()
	if dir := cmd.String("python-dir"); dir != "" {
		source = pyruntime.DirSource(dir)
	}
	if archivePath := cmd.String("python-archive"); archivePath != "" {
		source = pyruntime.ArchiveSource(archivePath)
	}

	opts := pipeline.Options{
		ResourcesRoot:   resources,
		ProjectRoot:     projectRoot,
		WorkDir:         workDir,
		Source:          source,
		Runner:          deps.Runner,
		Out:             deps.Stdout,
		ExcludePatterns: append(append([]string(nil), cfg.Exclude...), cmd.StringSlice("exclude")...),
		PipArgs:         cfg.PipArgs,
		MinPython:       minPython,
	}
	if jsonMode {
		// Keep stdout machine-readable; progress moves to stderr.
		opts.Out = deps.Stderr
	}
	return opts, nil
}
