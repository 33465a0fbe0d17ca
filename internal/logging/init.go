package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pweiskircher/cmux/internal/appdirs"
	"github.com/pweiskircher/cmux/internal/identity"
)

type InitOptions struct {
	App     string
	Version string
	Mode    Mode
}

// Init resolves cfg plus the environment for opts.Mode and installs the
// result as the slog default. The returned func closes the log file.
func Init(_ context.Context, cfg Config, opts InitOptions) (func() error, error) {
	if opts.App == "" {
		opts.App = identity.AppSlug
	}
	if opts.Mode == 0 {
		opts.Mode = ModeCLI
	}
	s, err := cfg.WithEnv().resolve(opts.Mode)
	if err != nil {
		return nil, err
	}
	w, closer, err := openSink(s)
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: s.level, AddSource: s.addSource}
	var h slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if s.format == FormatJSON {
		h = slog.NewJSONHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(h).With(
		slog.String("app", opts.App),
		slog.String("version", opts.Version),
		slog.String("mode", opts.Mode.String()),
	))
	setIncludePayloads(s.includePayloads)
	return closer, nil
}

func openSink(s settings) (io.Writer, func() error, error) {
	nop := func() error { return nil }
	switch s.sink {
	case SinkNone:
		return io.Discard, nop, nil
	case SinkStderr:
		return os.Stderr, nop, nil
	}
	path := s.file
	if path == "" {
		dir, err := appdirs.RuntimeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		path = filepath.Join(dir, identity.LogFile)
	} else if _, err := appdirs.EnsurePrivateDir(filepath.Dir(path), true); err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	compress := true
	if s.rotate.Compress != nil {
		compress = *s.rotate.Compress
	}
	rot := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    s.rotate.MaxSizeMB,
		MaxBackups: s.rotate.MaxBackups,
		MaxAge:     s.rotate.MaxAgeDays,
		Compress:   compress,
	}
	return rot, rot.Close, nil
}

// DefaultLogPath is the daemon log inside the runtime dir. It does not
// create the directory.
func DefaultLogPath() (string, error) {
	dir, err := appdirs.RuntimeDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, identity.LogFile), nil
}
