package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/embedpy/embedpy/internal/pipeline"
)

const defaultDebounce = 500 * time.Millisecond

func newWatchCommand(deps Dependencies) *cli.Command {
	flags := append(prepareFlags(),
		&cli.DurationFlag{Name: "debounce", Value: defaultDebounce, Usage: "quiet period before a rebuild"},
	)
	return &cli.Command{
		Name:  "watch",
		Usage: "re-run prepare whenever the project sources change",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runWatch(ctx, cmd, deps)
		},
	}
}

func runWatch(ctx context.Context, cmd *cli.Command, deps Dependencies) error {
	opts, err := buildPipelineOptions(cmd, deps, false)
	if err != nil {
		return err
	}
	resourcesAbs, err := filepath.Abs(opts.ResourcesRoot)
	if err != nil {
		return fmt.Errorf("resolve resources root: %w", err)
	}

	rebuild := func() {
		if _, err := pipeline.Run(ctx, opts); err != nil {
			fmt.Fprintf(deps.Stderr, "%s: %v\n", deps.AppName, err)
		}
	}
	rebuild()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := addWatchTree(watcher, opts.ProjectRoot, resourcesAbs); err != nil {
		return err
	}

	debounce := cmd.Duration("debounce")
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event, resourcesAbs) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addWatchTree(watcher, event.Name, resourcesAbs)
				}
			}
			pending = true
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case <-timer.C:
			if pending {
				pending = false
				rebuild()
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", watchErr)
		}
	}
}

func addWatchTree(w *fsnotify.Watcher, root, resourcesAbs string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if shouldIgnoreDir(d.Name()) || underRoot(path, resourcesAbs) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func relevantEvent(event fsnotify.Event, resourcesAbs string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if underRoot(event.Name, resourcesAbs) {
		return false
	}
	return !shouldIgnoreFile(event.Name)
}

func underRoot(path, root string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == root || strings.HasPrefix(abs, root+string(filepath.Separator))
}

func shouldIgnoreDir(name string) bool {
	switch name {
	case ".git", ".venv", "node_modules", "dist", "__pycache__", ".tox", ".mypy_cache":
		return true
	default:
		return false
	}
}

func shouldIgnoreFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".#") || strings.HasSuffix(base, "~") {
		return true
	}
	switch filepath.Ext(base) {
	case ".swp", ".tmp", ".pyc":
		return true
	}
	return false
}
