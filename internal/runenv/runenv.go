package runenv

import (
	"os"
	"strings"
)

const (
	// PythonDirEnv points at an already-unpacked embeddable runtime.
	PythonDirEnv = "RUNTIME_EMBED_PYTHON"
	// PythonArchiveEnv points at a zip or gzip-tar archive of the runtime.
	PythonArchiveEnv = "RUNTIME_EMBED_PYTHON_ARCHIVE"

	WorkDirEnv   = "EMBEDPY_WORK_DIR"
	LogLevelEnv  = "EMBEDPY_LOG_LEVEL"
	LogFormatEnv = "EMBEDPY_LOG_FORMAT"
	LogFileEnv   = "EMBEDPY_LOG_FILE"
)

func PythonDir() string {
	return strings.TrimSpace(os.Getenv(PythonDirEnv))
}

func PythonArchive() string {
	return strings.TrimSpace(os.Getenv(PythonArchiveEnv))
}

func WorkDir() string {
	return strings.TrimSpace(os.Getenv(WorkDirEnv))
}

func LogLevel() string {
	return strings.TrimSpace(os.Getenv(LogLevelEnv))
}

func LogFormat() string {
	return strings.TrimSpace(os.Getenv(LogFormatEnv))
}

func LogFile() string {
	return strings.TrimSpace(os.Getenv(LogFileEnv))
}
