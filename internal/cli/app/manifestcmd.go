package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/embedpy/embedpy/internal/cli/output"
	"github.com/embedpy/embedpy/internal/manifest"
)

func newManifestCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:  "manifest",
		Usage: "validate and print the runtime manifest of a prepared bundle",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "resources", Value: defaultResourcesDir, Usage: "resources root holding " + manifest.Filename},
			&cli.BoolFlag{Name: "json", Usage: "emit a JSON result envelope on stdout"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runManifest(cmd, deps)
		},
	}
}

func runManifest(cmd *cli.Command, deps Dependencies) error {
	start := time.Now()
	meta := output.NewMeta("manifest", deps.Version)
	path := filepath.Join(cmd.String("resources"), manifest.Filename)

	m, err := manifest.Load(path)
	if err != nil {
		if cmd.Bool("json") {
			meta = output.WithDuration(meta, start)
			if writeErr := output.WriteError(deps.Stdout, meta, "manifest_invalid", err.Error()); writeErr != nil {
				return writeErr
			}
			return cli.Exit("", 1)
		}
		return fmt.Errorf("preparation did not complete: %w", err)
	}
	if cmd.Bool("json") {
		meta = output.WithDuration(meta, start)
		return output.WriteSuccess(deps.Stdout, meta, output.ManifestResponse{
			Path:         path,
			Python:       m.Python,
			SitePackages: m.SitePackages,
		})
	}
	data, err := m.Encode()
	if err != nil {
		return err
	}
	_, err = deps.Stdout.Write(data)
	return err
}
