// Package bundleconfig loads the optional per-project embedpy config file.
package bundleconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/embedpy/embedpy/internal/identity"
	"github.com/embedpy/embedpy/internal/logging"
)

// Config is embedpy.yml / embedpy.yaml at the project root. Every field is
// optional; flags and environment variables take precedence.
type Config struct {
	// Resources overrides the output resources root.
	Resources string `yaml:"resources,omitempty"`
	// Exclude adds gitignore-style patterns to the runtime copy filter.
	Exclude []string `yaml:"exclude,omitempty"`
	// PipArgs are appended to the pip install invocation.
	PipArgs []string `yaml:"pip_args,omitempty"`
	// MinPython aborts the run when the interpreter is older.
	MinPython string `yaml:"min_python,omitempty"`

	Logging logging.Config `yaml:"logging,omitempty"`
}

// Load reads and strictly decodes one config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// LoadFromDir finds the project config under root. A missing file is not an
// error; the zero config applies.
func LoadFromDir(root string) (Config, error) {
	for _, name := range []string{identity.ProjectConfigFileYML, identity.ProjectConfigFileYAML} {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("stat config: %w", err)
		}
		return Load(path)
	}
	return Config{}, nil
}
