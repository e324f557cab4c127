// Package logging wires the process-wide slog default logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/embedpy/embedpy/internal/runenv"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config controls the default logger. Zero values fall back to quiet
// stderr text logging; environment variables override file config.
type Config struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`

	MaxSizeMB  int  `yaml:"max_size_mb,omitempty"`
	MaxBackups int  `yaml:"max_backups,omitempty"`
	Compress   bool `yaml:"compress,omitempty"`
}

// Options identify the process in every record.
type Options struct {
	App     string
	Version string
}

// Init installs the default slog logger and returns a close func for the
// file sink, if any.
func Init(cfg Config, opts Options) (func() error, error) {
	cfg = cfg.withEnv()

	writer := io.Writer(os.Stderr)
	closeFn := func() error { return nil }
	if cfg.File != "" {
		sink := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			Compress:   cfg.Compress,
		}
		writer = sink
		closeFn = sink.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	switch Format(strings.ToLower(cfg.Format)) {
	case FormatJSON:
		handler = slog.NewJSONHandler(writer, handlerOpts)
	case FormatText, "":
		handler = slog.NewTextHandler(writer, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	logger := slog.New(handler).With(
		slog.String("app", opts.App),
		slog.String("version", opts.Version),
	)
	slog.SetDefault(logger)
	return closeFn, nil
}

func (c Config) withEnv() Config {
	out := c
	if v := runenv.LogLevel(); v != "" {
		out.Level = v
	}
	if v := runenv.LogFormat(); v != "" {
		out.Format = v
	}
	if v := runenv.LogFile(); v != "" {
		out.File = v
	}
	return out
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
