package runenv

import "testing"

func TestAccessorsTrimWhitespace(t *testing.T) {
	t.Setenv(PythonDirEnv, "  /opt/python  ")
	t.Setenv(PythonArchiveEnv, "\t/tmp/rt.tar.gz ")
	if got := PythonDir(); got != "/opt/python" {
		t.Fatalf("dir=%q want=/opt/python", got)
	}
	if got := PythonArchive(); got != "/tmp/rt.tar.gz" {
		t.Fatalf("archive=%q want=/tmp/rt.tar.gz", got)
	}
}

func TestAccessorsEmptyByDefault(t *testing.T) {
	t.Setenv(PythonDirEnv, "")
	t.Setenv(PythonArchiveEnv, "")
	if got := PythonDir(); got != "" {
		t.Fatalf("dir=%q want empty", got)
	}
	if got := PythonArchive(); got != "" {
		t.Fatalf("archive=%q want empty", got)
	}
}
