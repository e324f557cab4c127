// Package pyproject reads the slice of pyproject.toml this tool needs.
package pyproject

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const Filename = "pyproject.toml"

// Metadata is the declared project metadata.
type Metadata struct {
	Name    string
	Version string
}

type document struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
}

// Load reads pyproject.toml from the project root.
func Load(projectRoot string) (Metadata, error) {
	path := filepath.Join(projectRoot, Filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read %s: %w", Filename, err)
	}
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("parse %s: %w", Filename, err)
	}
	meta := Metadata{
		Name:    strings.TrimSpace(doc.Project.Name),
		Version: strings.TrimSpace(doc.Project.Version),
	}
	if meta.Name == "" {
		return Metadata{}, errors.New("pyproject.toml has no project.name")
	}
	return meta, nil
}

// ImportName converts the distribution name into the top-level import name,
// the directory pip creates under site-packages.
func (m Metadata) ImportName() string {
	name := strings.ToLower(m.Name)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	return name
}
