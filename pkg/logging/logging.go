// Package logging builds the slog loggers used by the hellopool binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
	"github.com/vnykmshr/hellopool/pkg/common/validation"
)

// Options selects the level, encoding and destination of a logger.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string

	// Format is text or json. Empty means text.
	Format string

	// File, when set, writes to a lumberjack-rotated file instead of Output.
	File       string
	MaxSizeMB  int
	MaxBackups int

	// Output receives logs when File is empty. Nil means os.Stderr.
	Output io.Writer
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, hperrors.NewValidationError("logging", "level", s, "unknown level").
			WithHint("use debug, info, warn or error")
	}
	return level, nil
}

// New builds a logger from opts. The returned cleanup closes the log file,
// if any, and is safe to call more than once.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = "text"
	}
	if err := validation.ValidateOneOf("logging", "format", format, "text", "json"); err != nil {
		return nil, nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	cleanup := func() error { return nil }

	if opts.File != "" {
		rotator, err := newRotator(opts)
		if err != nil {
			return nil, nil, err
		}
		out = rotator
		var once sync.Once
		cleanup = func() error {
			var err error
			once.Do(func() { err = rotator.Close() })
			return err
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(handler), cleanup, nil
}

func newRotator(opts Options) (*lumberjack.Logger, error) {
	if err := validation.ValidateNonNegative("logging", "max_size_mb", opts.MaxSizeMB); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("logging", "max_backups", opts.MaxBackups); err != nil {
		return nil, err
	}

	path := filepath.Clean(opts.File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, hperrors.NewOperationError("logging", "CreateLogDir", err).WithContext(path)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}, nil
}

// String renders opts for startup logs.
func (o Options) String() string {
	dest := "stderr"
	if o.File != "" {
		dest = o.File
	}
	return fmt.Sprintf("level=%s format=%s dest=%s", o.Level, o.Format, dest)
}
