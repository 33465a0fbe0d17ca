package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pweiskircher/cmux/internal/userpath"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Sink string

const (
	SinkStderr Sink = "stderr"
	SinkFile   Sink = "file"
	SinkNone   Sink = "none"
)

// Environment overrides, applied over config.yml.
const (
	EnvLogLevel           = "CMUX_LOG_LEVEL"
	EnvLogFormat          = "CMUX_LOG_FORMAT"
	EnvLogSink            = "CMUX_LOG_SINK"
	EnvLogFile            = "CMUX_LOG_FILE"
	EnvLogAddSource       = "CMUX_LOG_ADD_SOURCE"
	EnvLogIncludePayloads = "CMUX_LOG_INCLUDE_PAYLOADS"
	EnvLogMaxSizeMB       = "CMUX_LOG_MAX_SIZE_MB"
	EnvLogMaxBackups      = "CMUX_LOG_MAX_BACKUPS"
	EnvLogMaxAgeDays      = "CMUX_LOG_MAX_AGE_DAYS"
	EnvLogCompress        = "CMUX_LOG_COMPRESS"
)

// Config is the logging section of config.yml. Empty fields take the
// defaults of the process mode: quiet text on stderr for the CLI, info
// level JSON into a rotated file for the daemon.
type Config struct {
	Level           string   `yaml:"level,omitempty"`
	Format          string   `yaml:"format,omitempty"`
	Sink            string   `yaml:"sink,omitempty"`
	File            string   `yaml:"file,omitempty"`
	AddSource       bool     `yaml:"add_source,omitempty"`
	IncludePayloads bool     `yaml:"include_payloads,omitempty"`
	Rotate          Rotation `yaml:"rotate,omitempty"`
}

// Rotation bounds the daemon log file. Zero values keep the defaults.
type Rotation struct {
	MaxSizeMB  int   `yaml:"max_size_mb,omitempty"`
	MaxBackups int   `yaml:"max_backups,omitempty"`
	MaxAgeDays int   `yaml:"max_age_days,omitempty"`
	Compress   *bool `yaml:"compress,omitempty"`
}

// settings is Config resolved for one process.
type settings struct {
	level           slog.Level
	format          Format
	sink            Sink
	file            string
	addSource       bool
	includePayloads bool
	rotate          Rotation
}

// WithEnv returns c with the CMUX_LOG_* variables applied.
func (c Config) WithEnv() Config {
	for env, dst := range map[string]*string{
		EnvLogLevel:  &c.Level,
		EnvLogFormat: &c.Format,
		EnvLogSink:   &c.Sink,
		EnvLogFile:   &c.File,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	for env, dst := range map[string]*bool{
		EnvLogAddSource:       &c.AddSource,
		EnvLogIncludePayloads: &c.IncludePayloads,
	} {
		if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(env))); err == nil {
			*dst = v
		}
	}
	for env, dst := range map[string]*int{
		EnvLogMaxSizeMB:  &c.Rotate.MaxSizeMB,
		EnvLogMaxBackups: &c.Rotate.MaxBackups,
		EnvLogMaxAgeDays: &c.Rotate.MaxAgeDays,
	} {
		if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(env))); err == nil {
			*dst = v
		}
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogCompress))); err == nil {
		c.Rotate.Compress = &v
	}
	return c
}

// Validate reports the first value resolve would reject.
func (c Config) Validate() error {
	_, err := c.resolve(ModeCLI)
	return err
}

func (c Config) resolve(mode Mode) (settings, error) {
	s := settings{
		level:           slog.LevelError,
		format:          FormatText,
		sink:            SinkStderr,
		file:            userpath.Expand(c.File),
		addSource:       c.AddSource,
		includePayloads: c.IncludePayloads,
		rotate:          Rotation{MaxSizeMB: 20, MaxBackups: 5, MaxAgeDays: 7},
	}
	if mode == ModeDaemon {
		s.level, s.format, s.sink = slog.LevelInfo, FormatJSON, SinkFile
	}
	if v := strings.ToLower(strings.TrimSpace(c.Level)); v != "" {
		if v == "warning" {
			v = "warn"
		}
		if err := s.level.UnmarshalText([]byte(v)); err != nil {
			return s, fmt.Errorf("logging.level: %q is not debug, info, warn or error", c.Level)
		}
	}
	switch v := Format(strings.ToLower(strings.TrimSpace(c.Format))); v {
	case "":
	case FormatText, FormatJSON:
		s.format = v
	default:
		return s, fmt.Errorf("logging.format: %q is not text or json", c.Format)
	}
	switch v := Sink(strings.ToLower(strings.TrimSpace(c.Sink))); v {
	case "":
	case SinkStderr, SinkFile, SinkNone:
		s.sink = v
	default:
		return s, fmt.Errorf("logging.sink: %q is not stderr, file or none", c.Sink)
	}
	if r := c.Rotate; r.MaxSizeMB < 0 || r.MaxBackups < 0 || r.MaxAgeDays < 0 {
		return s, fmt.Errorf("logging.rotate: limits must not be negative")
	}
	if c.Rotate.MaxSizeMB > 0 {
		s.rotate.MaxSizeMB = c.Rotate.MaxSizeMB
	}
	if c.Rotate.MaxBackups > 0 {
		s.rotate.MaxBackups = c.Rotate.MaxBackups
	}
	if c.Rotate.MaxAgeDays > 0 {
		s.rotate.MaxAgeDays = c.Rotate.MaxAgeDays
	}
	s.rotate.Compress = c.Rotate.Compress
	return s, nil
}
