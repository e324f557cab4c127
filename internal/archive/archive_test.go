package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

var testEntries = map[string]string{
	"cpython/bin/python3":     "#!/bin/sh\n",
	"cpython/lib/os.py":       "import sys\n",
	"cpython/lib/sub/mod.py":  "x = 1\n",
	"cpython/share/README.md": "runtime\n",
}

func writeZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range testEntries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func writeTarGz(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create tar.gz: %v", err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	names := make([]string, 0, len(testEntries))
	for name := range testEntries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		body := testEntries[name]
		header := &tar.Header{Name: name, Mode: 0o755, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func listTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return out
}

func TestZipAndTarGzYieldIdenticalTrees(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "rt.zip")
	tarPath := filepath.Join(dir, "rt.tar.gz")
	writeZip(t, zipPath)
	writeTarGz(t, tarPath)

	zipDest := filepath.Join(dir, "from-zip")
	tarDest := filepath.Join(dir, "from-tar")
	if err := Extract(zipPath, zipDest); err != nil {
		t.Fatalf("extract zip: %v", err)
	}
	if err := Extract(tarPath, tarDest); err != nil {
		t.Fatalf("extract tar.gz: %v", err)
	}

	zipTree := listTree(t, zipDest)
	tarTree := listTree(t, tarDest)
	if len(zipTree) != len(testEntries) {
		t.Fatalf("zip tree files=%d want=%d", len(zipTree), len(testEntries))
	}
	for name, body := range zipTree {
		if tarTree[name] != body {
			t.Fatalf("tree mismatch at %s: zip=%q tar=%q", name, body, tarTree[name])
		}
	}
}

func TestTgzSuffixAccepted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rt.tgz")
	writeTarGz(t, path)
	dest := filepath.Join(dir, "out")
	if err := Extract(path, dest); err != nil {
		t.Fatalf("extract tgz: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "cpython", "bin", "python3")); err != nil {
		t.Fatalf("expected interpreter in tree: %v", err)
	}
}

func TestUnsupportedSuffixFailsBeforeTouchingDest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rt.rar")
	if err := os.WriteFile(path, []byte("not an archive"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	dest := filepath.Join(dir, "out")
	err := Extract(path, dest)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err=%v want ErrUnsupportedFormat", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("dest was created for unsupported archive")
	}
}

func writeTarGzHeaders(t *testing.T, path string, headers []*tar.Header, bodies map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, header := range headers {
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if body, ok := bodies[header.Name]; ok {
			if _, err := tw.Write([]byte(body)); err != nil {
				t.Fatalf("tar write: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func TestRejectsTraversalEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evil.tar.gz")
	body := "owned"
	writeTarGzHeaders(t, path,
		[]*tar.Header{{Name: "../escape.txt", Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}},
		map[string]string{"../escape.txt": body})

	if err := Extract(path, filepath.Join(dir, "out")); err == nil {
		t.Fatalf("expected traversal entry to be rejected")
	}
}

func TestRejectsEscapingSymlinkTargets(t *testing.T) {
	dir := t.TempDir()
	for name, linkname := range map[string]string{
		"relative": "../../outside/etc/passwd",
		"absolute": "/etc/passwd",
	} {
		path := filepath.Join(dir, name+".tar.gz")
		writeTarGzHeaders(t, path,
			[]*tar.Header{{Name: "cpython/bin/evil", Linkname: linkname, Typeflag: tar.TypeSymlink}},
			nil)
		if err := Extract(path, filepath.Join(dir, name+"-out")); err == nil {
			t.Fatalf("%s symlink target should be rejected", name)
		}
	}
}

func TestKeepsInTreeSymlinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rt.tar.gz")
	body := "#!/bin/sh\n"
	writeTarGzHeaders(t, path,
		[]*tar.Header{
			{Name: "cpython/bin/python3.12", Mode: 0o755, Size: int64(len(body)), Typeflag: tar.TypeReg},
			{Name: "cpython/bin/python3", Linkname: "python3.12", Typeflag: tar.TypeSymlink},
		},
		map[string]string{"cpython/bin/python3.12": body})

	dest := filepath.Join(dir, "out")
	if err := Extract(path, dest); err != nil {
		t.Fatalf("extract: %v", err)
	}
	link, err := os.Readlink(filepath.Join(dest, "cpython", "bin", "python3"))
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if link != "python3.12" {
		t.Fatalf("link=%q want=python3.12", link)
	}
}
