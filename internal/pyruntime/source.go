// Package pyruntime resolves the authoritative Python runtime directory and
// the interpreter executable inside it.
package pyruntime

import (
	"errors"

	"github.com/embedpy/embedpy/internal/runenv"
)

var (
	// ErrSourceNotFound reports a configured runtime directory or archive
	// that does not exist on disk.
	ErrSourceNotFound = errors.New("runtime source not found")
	// ErrInterpreterNotFound reports a resolved directory without a usable
	// interpreter executable.
	ErrInterpreterNotFound = errors.New("python interpreter not found")
)

// SourceKind tags the runtime source variants.
type SourceKind int

const (
	// KindFallback uses the installation root of a python found on PATH.
	KindFallback SourceKind = iota
	// KindArchive extracts a zip or gzip-tar archive first.
	KindArchive
	// KindDir uses an already-unpacked runtime directory.
	KindDir
)

// Source says where the embeddable runtime comes from.
type Source struct {
	Kind SourceKind
	Path string
}

func ArchiveSource(path string) Source { return Source{Kind: KindArchive, Path: path} }
func DirSource(path string) Source     { return Source{Kind: KindDir, Path: path} }
func FallbackSource() Source           { return Source{Kind: KindFallback} }

func (k SourceKind) String() string {
	switch k {
	case KindArchive:
		return "archive"
	case KindDir:
		return "dir"
	default:
		return "fallback"
	}
}

// SourceFromEnv builds a Source from the process environment. The archive
// variable wins over the directory variable; with neither set the fallback
// interpreter is used.
func SourceFromEnv() Source {
	if path := runenv.PythonArchive(); path != "" {
		return ArchiveSource(path)
	}
	if path := runenv.PythonDir(); path != "" {
		return DirSource(path)
	}
	return FallbackSource()
}
