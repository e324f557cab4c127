package pyruntime

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/embedpy/embedpy/internal/runenv"
)

// Locator resolves a Source to one concrete runtime directory. The zero value
// is production-ready; fields exist so tests can pin the platform and avoid
// PATH lookups.
type Locator struct {
	// GOOS overrides runtime.GOOS.
	GOOS string
	// LookPath overrides exec.LookPath for the fallback source.
	LookPath func(file string) (string, error)
	// Extract overrides the archive extractor.
	Extract func(archivePath, dest string) error
	// Warn receives the human-readable fallback warning line.
	Warn func(format string, args ...any)
}

// Resolved is the located runtime.
type Resolved struct {
	// Dir is the runtime installation root to copy.
	Dir string
	// Interpreter is the executable inside Dir.
	Interpreter string
	// UsedFallback marks a run without explicit runtime configuration.
	UsedFallback bool
}

// Resolve picks the runtime directory for source, extracting archives into
// workDir. The result always contains a usable interpreter.
func (l Locator) Resolve(source Source, workDir string) (Resolved, error) {
	var (
		resolved Resolved
		err      error
	)
	switch source.Kind {
	case KindArchive:
		resolved, err = l.resolveArchive(source.Path, workDir)
	case KindDir:
		resolved, err = l.resolveDir(source.Path)
	default:
		resolved, err = l.resolveFallback()
	}
	if err != nil {
		return Resolved{}, err
	}
	interpreter, ok := l.findInterpreter(resolved.Dir)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: no interpreter under %s", ErrInterpreterNotFound, resolved.Dir)
	}
	resolved.Interpreter = interpreter
	return resolved, nil
}

func (l Locator) resolveArchive(archivePath, workDir string) (Resolved, error) {
	if _, err := os.Stat(archivePath); err != nil {
		return Resolved{}, fmt.Errorf("%w: archive %s: %v", ErrSourceNotFound, archivePath, err)
	}
	dest := filepath.Join(workDir, "runtime-src")
	if err := os.RemoveAll(dest); err != nil {
		return Resolved{}, fmt.Errorf("clear extraction dir: %w", err)
	}
	extract := l.Extract
	if extract == nil {
		return Resolved{}, fmt.Errorf("no extractor configured")
	}
	if err := extract(archivePath, dest); err != nil {
		return Resolved{}, err
	}
	// Prefer the first immediate child holding an interpreter; archives
	// usually wrap the runtime in a single top-level directory.
	entries, err := os.ReadDir(dest)
	if err != nil {
		return Resolved{}, fmt.Errorf("read extraction dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		candidate := filepath.Join(dest, name)
		if _, ok := l.findInterpreter(candidate); ok {
			return Resolved{Dir: candidate}, nil
		}
	}
	if _, ok := l.findInterpreter(dest); ok {
		return Resolved{Dir: dest}, nil
	}
	return Resolved{}, fmt.Errorf("%w: nothing usable extracted from %s", ErrInterpreterNotFound, archivePath)
}

func (l Locator) resolveDir(dir string) (Resolved, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, dir, err)
	}
	if !info.IsDir() {
		return Resolved{}, fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, dir)
	}
	return Resolved{Dir: dir}, nil
}

func (l Locator) resolveFallback() (Resolved, error) {
	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range interpreterNames(l.goos()) {
		path, err := lookPath(name)
		if err != nil {
			continue
		}
		root := installRoot(path)
		l.warnf("%s not set, using %s from PATH (root %s)", runenv.PythonDirEnv, name, root)
		slog.Warn("no explicit runtime configured, falling back to PATH interpreter",
			"interpreter", path, "root", root)
		return Resolved{Dir: root, UsedFallback: true}, nil
	}
	return Resolved{}, fmt.Errorf("%w: no python on PATH", ErrInterpreterNotFound)
}

// findInterpreter reports the interpreter executable inside root: python.exe
// at the tree root on windows, bin/python3 or bin/python elsewhere.
func (l Locator) findInterpreter(root string) (string, bool) {
	goos := l.goos()
	if goos == "windows" {
		path := filepath.Join(root, "python.exe")
		if isFile(path) {
			return path, true
		}
		return "", false
	}
	for _, name := range interpreterNames(goos) {
		path := filepath.Join(root, "bin", name)
		if isFile(path) {
			return path, true
		}
	}
	return "", false
}

func interpreterNames(goos string) []string {
	if goos == "windows" {
		return []string{"python.exe", "python"}
	}
	return []string{"python3", "python"}
}

// installRoot derives the installation root from an interpreter path: the
// parent of its bin directory, or the executable's own directory for flat
// windows-style layouts.
func installRoot(interpreter string) string {
	dir := filepath.Dir(interpreter)
	if filepath.Base(dir) == "bin" {
		return filepath.Dir(dir)
	}
	return dir
}

func (l Locator) goos() string {
	if l.GOOS != "" {
		return l.GOOS
	}
	return runtime.GOOS
}

func (l Locator) warnf(format string, args ...any) {
	if l.Warn == nil {
		return
	}
	l.Warn(format, args...)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
