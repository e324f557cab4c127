// Package archive unpacks embeddable runtime archives.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat reports an archive suffix the extractor does not handle.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Extract unpacks a .zip, .tar.gz or .tgz archive into dest, creating dest if
// absent. The format check happens before anything touches the filesystem, so
// an unsupported archive leaves dest exactly as it was.
func Extract(archivePath, dest string) error {
	kind, err := detectFormat(archivePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create dest: %w", err)
	}
	switch kind {
	case formatZip:
		return extractZip(archivePath, dest)
	case formatTarGz:
		return extractTarGz(archivePath, dest)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, archivePath)
	}
}

type format int

const (
	formatUnknown format = iota
	formatZip
	formatTarGz
)

func detectFormat(path string) (format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return formatZip, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return formatTarGz, nil
	default:
		return formatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func extractZip(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer func() { _ = reader.Close() }()
	for _, file := range reader.File {
		target, err := safeJoin(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, dirPerm(file.Mode())); err != nil {
				return fmt.Errorf("create dir: %w", err)
			}
			continue
		}
		src, err := file.Open()
		if err != nil {
			return fmt.Errorf("open entry %s: %w", file.Name, err)
		}
		err = writeEntry(target, src, file.Mode())
		_ = src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarGz(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirPerm(header.FileInfo().Mode())); err != nil {
				return fmt.Errorf("create dir: %w", err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, header.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := safeLinkname(dest, target, header.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create dir: %w", err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("symlink %s: %w", header.Name, err)
			}
		default:
			// hard links, devices and the like do not occur in runtime bundles
		}
	}
}

func writeEntry(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm(mode))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	return nil
}

func safeJoin(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return filepath.Join(dest, clean), nil
}

// safeLinkname rejects symlink targets that resolve outside dest. The check is
// lexical, matching safeJoin.
func safeLinkname(dest, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("symlink target escapes destination: %s", linkname)
	}
	root := filepath.Clean(dest)
	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))
	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return fmt.Errorf("symlink target escapes destination: %s", linkname)
	}
	return nil
}

func dirPerm(mode os.FileMode) os.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o755
	}
	return perm | 0o700
}

func filePerm(mode os.FileMode) os.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o644
	}
	return perm
}
