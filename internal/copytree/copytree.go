// Package copytree copies directory trees with name-based exclusions.
package copytree

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// excludedNames are skipped at every depth during a runtime copy. Matching is
// by bare entry name, never by path.
var excludedNames = map[string]struct{}{
	"site-packages": {},
	"__pycache__":   {},
	"tests":         {},
	"test":          {},
}

// ExcludedNames returns the fixed exclusion set in no particular order.
func ExcludedNames() []string {
	out := make([]string, 0, len(excludedNames))
	for name := range excludedNames {
		out = append(out, name)
	}
	return out
}

// Options tune a copy beyond the fixed exclusion set.
type Options struct {
	// ExtraPatterns are gitignore-style patterns matched against the
	// source-relative path of every entry.
	ExtraPatterns []string
}

// Copy replicates src into dest, skipping excluded names at any depth
// regardless of entry type. dest is deleted first when present, so the result
// never contains artifacts of a previous run.
func Copy(src, dest string, opts Options) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", src)
	}

	var matcher *gitignore.GitIgnore
	if len(opts.ExtraPatterns) > 0 {
		matcher = gitignore.CompileIgnoreLines(opts.ExtraPatterns...)
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clear dest: %w", err)
	}
	if err := os.MkdirAll(dest, dirPerm(info.Mode())); err != nil {
		return fmt.Errorf("create dest: %w", err)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == src {
			return nil
		}
		if _, excluded := excludedNames[d.Name()]; excluded {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if matcher != nil && matcher.MatchesPath(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dest, rel)
		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, dirPerm(info.Mode()))
		case d.Type()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
			return os.Symlink(link, target)
		default:
			info, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

// Mirror replicates src into dest verbatim, with no exclusions. dest is
// deleted first when present.
func Mirror(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", src)
	}
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clear dest: %w", err)
	}
	if err := os.MkdirAll(dest, dirPerm(info.Mode())); err != nil {
		return fmt.Errorf("create dest: %w", err)
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == src {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, dirPerm(info.Mode()))
		case d.Type()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
			return os.Symlink(link, target)
		default:
			info, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open src: %w", err)
	}
	defer func() { _ = in.Close() }()
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir dest: %w", err)
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("open dest: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close dest: %w", err)
	}
	return nil
}

func dirPerm(mode fs.FileMode) fs.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o755
	}
	return perm | 0o700
}
