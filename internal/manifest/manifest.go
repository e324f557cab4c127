// Package manifest reads and writes the runtime manifest consumed by the
// downstream packaging step.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/embedpy/embedpy/internal/atomicfile"
)

// Filename is the manifest file name under the resources root.
const Filename = "runtime_manifest.txt"

const (
	keyPython       = "python"
	keySitePackages = "site-packages"
)

// Manifest records the absolute paths of the prepared artifacts. Its absence
// or malformation means the preparation did not complete.
type Manifest struct {
	Python       string
	SitePackages string
}

func (m Manifest) validate() error {
	if strings.TrimSpace(m.Python) == "" {
		return errors.New("manifest: python path is required")
	}
	if strings.TrimSpace(m.SitePackages) == "" {
		return errors.New("manifest: site-packages path is required")
	}
	return nil
}

// Encode renders the fixed two-line key=value form, python first.
func (m Manifest) Encode() ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s\n", keyPython, m.Python)
	fmt.Fprintf(&b, "%s=%s\n", keySitePackages, m.SitePackages)
	return []byte(b.String()), nil
}

// Write persists the manifest atomically, so it never exists half-written.
// Callers invoke this strictly after every other pipeline step succeeded.
func Write(path string, m Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := atomicfile.Save(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads and validates a manifest written by Write.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes the two-line key=value form, enforcing key order.
func Parse(data []byte) (Manifest, error) {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		return Manifest{}, fmt.Errorf("manifest: expected 2 lines, got %d", len(lines))
	}
	var m Manifest
	for i, wantKey := range []string{keyPython, keySitePackages} {
		key, value, found := strings.Cut(lines[i], "=")
		if !found {
			return Manifest{}, fmt.Errorf("manifest: line %d is not key=value: %q", i+1, lines[i])
		}
		if key != wantKey {
			return Manifest{}, fmt.Errorf("manifest: line %d key=%q want=%q", i+1, key, wantKey)
		}
		switch wantKey {
		case keyPython:
			m.Python = value
		case keySitePackages:
			m.SitePackages = value
		}
	}
	if err := m.validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
