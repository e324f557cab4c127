package app

import (
	"errors"

	"github.com/embedpy/embedpy/internal/archive"
	"github.com/embedpy/embedpy/internal/execrun"
	"github.com/embedpy/embedpy/internal/pipdeps"
	"github.com/embedpy/embedpy/internal/pyruntime"
)

// errorCode maps pipeline failures onto stable machine-readable codes for
// the JSON error envelope.
func errorCode(err error) string {
	switch {
	case errors.Is(err, archive.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, pyruntime.ErrSourceNotFound):
		return "runtime_source_not_found"
	case errors.Is(err, pyruntime.ErrInterpreterNotFound):
		return "interpreter_not_found"
	case errors.Is(err, pipdeps.ErrPipUnavailable):
		return "package_manager_unavailable"
	case errors.Is(err, execrun.ErrSubprocess):
		return "subprocess_failure"
	default:
		return "internal"
	}
}
