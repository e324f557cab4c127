package pyruntime

import (
	"context"
	"fmt"
	"testing"

	"github.com/embedpy/embedpy/internal/execrun"
)

type scriptedRunner struct {
	output string
	err    error
}

func (r scriptedRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	_, err := r.Output(ctx, dir, name, args...)
	return err
}

func (r scriptedRunner) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	return r.output, r.err
}

var _ execrun.Runner = scriptedRunner{}

func TestParseVersionOutput(t *testing.T) {
	cases := map[string]string{
		"Python 3.11.4":    "3.11.4",
		"Python 3.12\n":    "3.12.0",
		"  python 3.9.18 ": "3.9.18",
	}
	for raw, want := range cases {
		version, err := ParseVersionOutput(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if version.String() != want {
			t.Fatalf("version(%q)=%s want=%s", raw, version, want)
		}
	}
	if _, err := ParseVersionOutput("GNU bash 5.2"); err == nil {
		t.Fatalf("expected error for non-python output")
	}
}

func TestCheckMinVersion(t *testing.T) {
	runner := scriptedRunner{output: "Python 3.11.4\n"}
	if err := CheckMinVersion(context.Background(), runner, "python3", "3.10"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckMinVersion(context.Background(), runner, "python3", "3.12"); err == nil {
		t.Fatalf("expected too-old error")
	}
	if err := CheckMinVersion(context.Background(), runner, "python3", ""); err != nil {
		t.Fatalf("empty minimum should be a no-op: %v", err)
	}
}

func TestCheckMinVersionProbeFailure(t *testing.T) {
	runner := scriptedRunner{err: fmt.Errorf("boom")}
	if err := CheckMinVersion(context.Background(), runner, "python3", "3.10"); err == nil {
		t.Fatalf("expected probe error")
	}
}
