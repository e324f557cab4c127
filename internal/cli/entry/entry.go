// Package entry is the process entry point shared by the embedpy binary.
package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/embedpy/embedpy/internal/bundleconfig"
	"github.com/embedpy/embedpy/internal/cli/app"
	"github.com/embedpy/embedpy/internal/identity"
	"github.com/embedpy/embedpy/internal/logging"
)

// Run starts the CLI and returns the process exit code.
func Run(args []string, version string) int {
	logCfg := logging.Config{}
	if cfg, err := bundleconfig.LoadFromDir("."); err == nil {
		logCfg = cfg.Logging
	}
	closeLogger, err := logging.Init(logCfg, logging.Options{
		App:     identity.AppSlug,
		Version: version,
	})
	if err != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
		slog.Error("init logging failed; using stderr fallback", "err", err)
	} else if closeLogger != nil {
		defer func() { _ = closeLogger() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := app.DefaultDependencies(version)
	if err := app.New(deps).Run(ctx, args); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintf(os.Stderr, "%s: %s\n", identity.CLIName, msg)
			}
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", identity.CLIName, err)
		return 1
	}
	return 0
}
