package pyruntime

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/embedpy/embedpy/internal/execrun"
)

var versionOutputRe = regexp.MustCompile(`(?i)python\s+(\d+\.\d+(?:\.\d+)?)`)

// ProbeVersion asks the interpreter for its version.
func ProbeVersion(ctx context.Context, runner execrun.Runner, interpreter string) (*semver.Version, error) {
	out, err := runner.Output(ctx, "", interpreter, "--version")
	if err != nil {
		return nil, fmt.Errorf("probe interpreter version: %w", err)
	}
	return ParseVersionOutput(out)
}

// ParseVersionOutput extracts the semantic version from "Python X.Y.Z" output.
func ParseVersionOutput(out string) (*semver.Version, error) {
	match := versionOutputRe.FindStringSubmatch(strings.TrimSpace(out))
	if match == nil {
		return nil, fmt.Errorf("unrecognized interpreter version output %q", strings.TrimSpace(out))
	}
	version, err := semver.NewVersion(match[1])
	if err != nil {
		return nil, fmt.Errorf("parse interpreter version %q: %w", match[1], err)
	}
	return version, nil
}

// CheckMinVersion fails when the interpreter is older than min (for example
// "3.10" or "3.11.2").
func CheckMinVersion(ctx context.Context, runner execrun.Runner, interpreter, min string) error {
	min = strings.TrimSpace(min)
	if min == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(">= " + min)
	if err != nil {
		return fmt.Errorf("invalid minimum version %q: %w", min, err)
	}
	version, err := ProbeVersion(ctx, runner, interpreter)
	if err != nil {
		return err
	}
	if !constraint.Check(version) {
		return fmt.Errorf("interpreter %s is %s, need >= %s", interpreter, version, min)
	}
	return nil
}
