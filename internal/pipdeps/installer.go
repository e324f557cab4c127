// Package pipdeps installs the project's Python dependencies into an
// isolated site-packages directory.
package pipdeps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/embedpy/embedpy/internal/copytree"
	"github.com/embedpy/embedpy/internal/execrun"
	"github.com/embedpy/embedpy/internal/pyproject"
)

// ErrPipUnavailable reports that pip could not be probed or bootstrapped.
var ErrPipUnavailable = errors.New("pip unavailable")

// BridgeDirName is the auxiliary asset directory looked up next to
// pyproject.toml and overlaid into the installed package.
const BridgeDirName = "bridge"

// Installer drives pip through a Runner.
type Installer struct {
	Runner execrun.Runner
	// Interpreter is the python executable used for every pip invocation.
	Interpreter string
	// ProjectRoot holds pyproject.toml and the optional bridge directory.
	ProjectRoot string
	// ExtraPipArgs are appended to the install command.
	ExtraPipArgs []string
}

// Install prepares target (created if absent), makes sure pip works, installs
// the project into target, and overlays bridge assets. target is the isolated
// site-packages directory recorded in the manifest.
func (i Installer) Install(ctx context.Context, target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create site-packages dir: %w", err)
	}
	if err := i.ensurePip(ctx); err != nil {
		return err
	}
	args := []string{"-m", "pip", "install", ".", "--target", target}
	args = append(args, i.ExtraPipArgs...)
	slog.Info("installing project dependencies",
		"command", execrun.Render(i.Interpreter, args...), "dir", i.ProjectRoot)
	if err := i.Runner.Run(ctx, i.ProjectRoot, i.Interpreter, args...); err != nil {
		return fmt.Errorf("install project: %w", err)
	}
	return i.overlayBridge(target)
}

// ensurePip probes pip and bootstraps it through ensurepip when the probe
// fails. A successful bootstrap is followed by a pip self-upgrade.
func (i Installer) ensurePip(ctx context.Context) error {
	if err := i.Runner.Run(ctx, "", i.Interpreter, "-m", "pip", "--version"); err == nil {
		return nil
	}
	slog.Warn("pip probe failed, bootstrapping with ensurepip", "interpreter", i.Interpreter)
	if err := i.Runner.Run(ctx, "", i.Interpreter, "-m", "ensurepip", "--upgrade"); err != nil {
		return fmt.Errorf("%w: ensurepip failed (%v); install pip into the runtime and retry", ErrPipUnavailable, err)
	}
	if err := i.Runner.Run(ctx, "", i.Interpreter, "-m", "pip", "install", "--upgrade", "pip"); err != nil {
		return fmt.Errorf("upgrade bootstrapped pip: %w", err)
	}
	return nil
}

// overlayBridge copies <project>/bridge verbatim into
// <target>/<import name>/bridge, replacing any prior copy.
func (i Installer) overlayBridge(target string) error {
	src := filepath.Join(i.ProjectRoot, BridgeDirName)
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat bridge dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("bridge path %s is not a directory", src)
	}
	meta, err := pyproject.Load(i.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolve bridge destination: %w", err)
	}
	dest := filepath.Join(target, meta.ImportName(), BridgeDirName)
	slog.Info("overlaying bridge assets", "src", src, "dest", dest)
	if err := copytree.Mirror(src, dest); err != nil {
		return fmt.Errorf("overlay bridge: %w", err)
	}
	return nil
}
