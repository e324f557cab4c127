// Package app assembles the embedpy command tree.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/embedpy/embedpy/internal/execrun"
	"github.com/embedpy/embedpy/internal/identity"
)

// Dependencies provides external services for command handlers.
type Dependencies struct {
	Version string
	AppName string

	Stdout io.Writer
	Stderr io.Writer

	Runner execrun.Runner
}

// DefaultDependencies returns dependencies wired to production services.
func DefaultDependencies(version string) Dependencies {
	return Dependencies{
		Version: version,
		AppName: identity.CLIName,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Runner:  execrun.NewExecRunner(),
	}
}

// New builds the root command.
func New(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:    deps.AppName,
		Usage:   "bundle an embeddable Python runtime for desktop packaging",
		Version: deps.Version,
		Writer:  deps.Stdout,
		Commands: []*cli.Command{
			newPrepareCommand(deps),
			newManifestCommand(deps),
			newWatchCommand(deps),
			newVersionCommand(deps),
		},
	}
}

func newVersionCommand(deps Dependencies) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print the embedpy version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintf(deps.Stdout, "%s %s\n", deps.AppName, deps.Version)
			return err
		},
	}
}
