// Package execrun isolates external process invocation behind a narrow
// interface so pipelines can be tested without spawning anything.
package execrun

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ErrSubprocess reports a non-zero exit (or failed start) of an external command.
var ErrSubprocess = errors.New("subprocess failed")

// Runner executes one external command to completion.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) error
	// Output behaves like Run but returns the captured combined output.
	Output(ctx context.Context, dir string, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	execCommand func(context.Context, string, ...string) *exec.Cmd
}

// NewExecRunner builds the production runner.
func NewExecRunner() ExecRunner {
	return ExecRunner{execCommand: exec.CommandContext}
}

// Run implements Runner. Output is captured and folded into the error on
// failure; successful commands stay quiet.
func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	_, err := r.Output(ctx, dir, name, args...)
	return err
}

// Output implements Runner.
func (r ExecRunner) Output(ctx context.Context, dir string, name string, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	execCommand := r.execCommand
	if execCommand == nil {
		execCommand = exec.CommandContext
	}
	cmd := execCommand(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		rendered := Render(name, args...)
		trimmed := strings.TrimSpace(string(output))
		if trimmed == "" {
			return "", fmt.Errorf("%w: %s: %v", ErrSubprocess, rendered, err)
		}
		return "", fmt.Errorf("%w: %s: %v: %s", ErrSubprocess, rendered, err, trimmed)
	}
	return string(output), nil
}

// Render formats a command line for logs and error messages.
func Render(name string, args ...string) string {
	return shellquote.Join(append([]string{name}, args...)...)
}
