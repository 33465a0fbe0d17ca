// Package config loads config.yml: logging, daemon endpoints, the terminal
// engine, layout bounds, workspace defaults, preset hooks and telemetry.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pweiskircher/cmux/internal/appdirs"
	"github.com/pweiskircher/cmux/internal/atomicfile"
	"github.com/pweiskircher/cmux/internal/identity"
	"github.com/pweiskircher/cmux/internal/layout"
	"github.com/pweiskircher/cmux/internal/limits"
	"github.com/pweiskircher/cmux/internal/logging"
	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/userpath"
)

//go:embed default_config.yml
var defaultTemplate []byte

const (
	EnginePTY    = "pty"
	EngineMemory = "memory"
)

// Config represents config.yml.
type Config struct {
	Logging   logging.Config    `yaml:"logging,omitempty"`
	Daemon    DaemonConfig      `yaml:"daemon,omitempty"`
	Terminal  TerminalConfig    `yaml:"terminal,omitempty"`
	Layout    LayoutConfig      `yaml:"layout,omitempty"`
	Workspace WorkspaceConfig   `yaml:"workspace,omitempty"`
	Hooks     map[string]string `yaml:"hooks,omitempty"`
	Telemetry TelemetryConfig   `yaml:"telemetry,omitempty"`
}

// DaemonConfig configures where the daemon listens.
type DaemonConfig struct {
	Socket string `yaml:"socket,omitempty"`
	// WebsocketAddr enables the GUI bridge when set, e.g. "127.0.0.1:7710".
	WebsocketAddr string `yaml:"websocket_addr,omitempty"`
}

// TerminalConfig selects and tunes the terminal engine.
type TerminalConfig struct {
	Engine          string `yaml:"engine,omitempty"`
	Shell           string `yaml:"shell,omitempty"`
	Cols            int    `yaml:"cols,omitempty"`
	Rows            int    `yaml:"rows,omitempty"`
	ScrollbackLines int    `yaml:"scrollback_lines,omitempty"`
}

// LayoutConfig sets the pane tree bounds and minimum pane extents.
type LayoutConfig struct {
	Width     int `yaml:"width,omitempty"`
	Height    int `yaml:"height,omitempty"`
	MinWidth  int `yaml:"min_width,omitempty"`
	MinHeight int `yaml:"min_height,omitempty"`
}

// WorkspaceConfig holds per-workspace defaults.
type WorkspaceConfig struct {
	FocusHistory int    `yaml:"focus_history,omitempty"`
	DefaultTitle string `yaml:"default_title,omitempty"`
}

// TelemetryConfig points the OTLP exporters at a collector.
type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Headers  string `yaml:"headers,omitempty"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Terminal: TerminalConfig{
			Engine:          EnginePTY,
			Cols:            limits.DefaultCols,
			Rows:            limits.DefaultRows,
			ScrollbackLines: limits.ScrollbackLinesDefault,
		},
		Layout: LayoutConfig{
			Width:     layout.LayoutBaseSize,
			Height:    layout.LayoutBaseSize,
			MinWidth:  layout.DefaultMinWidth,
			MinHeight: layout.DefaultMinHeight,
		},
		Workspace: WorkspaceConfig{FocusHistory: mux.DefaultFocusHistory},
	}
}

// DefaultPath returns $CMUX_CONFIG_DIR/config.yml or the per-user default.
func DefaultPath() (string, error) {
	dir, err := appdirs.ConfigDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, identity.GlobalConfigFile), nil
}

// EnsureDefault writes the commented template to path if nothing is there.
func EnsureDefault(path string) (bool, error) {
	return atomicfile.CreateIfMissing(path, defaultTemplate, 0o600)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Defaults(), fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return atomicfile.Save(path, data, 0o600)
}

func applyDefaults(cfg *Config) {
	defaults := Defaults()
	cfg.Terminal.Engine = strings.ToLower(strings.TrimSpace(cfg.Terminal.Engine))
	if cfg.Terminal.Engine == "" {
		cfg.Terminal.Engine = defaults.Terminal.Engine
	}
	cfg.Terminal.Cols, cfg.Terminal.Rows = limits.Clamp(cfg.Terminal.Cols, cfg.Terminal.Rows)
	cfg.Terminal.ScrollbackLines = limits.ScrollbackLines(cfg.Terminal.ScrollbackLines)
	if cfg.Layout.Width <= 0 {
		cfg.Layout.Width = defaults.Layout.Width
	}
	if cfg.Layout.Height <= 0 {
		cfg.Layout.Height = defaults.Layout.Height
	}
	if cfg.Layout.MinWidth <= 0 {
		cfg.Layout.MinWidth = defaults.Layout.MinWidth
	}
	if cfg.Layout.MinHeight <= 0 {
		cfg.Layout.MinHeight = defaults.Layout.MinHeight
	}
	if cfg.Workspace.FocusHistory <= 1 {
		cfg.Workspace.FocusHistory = defaults.Workspace.FocusHistory
	}
	cfg.Workspace.DefaultTitle = strings.TrimSpace(cfg.Workspace.DefaultTitle)
	cfg.Daemon.Socket = userpath.Expand(cfg.Daemon.Socket)
	cfg.Terminal.Shell = userpath.Expand(cfg.Terminal.Shell)
	cfg.Daemon.WebsocketAddr = strings.TrimSpace(cfg.Daemon.WebsocketAddr)
	cfg.Telemetry.Endpoint = strings.TrimSpace(cfg.Telemetry.Endpoint)
}

// Validate rejects values the daemon cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Terminal.Engine {
	case EnginePTY, EngineMemory:
	default:
		errs = append(errs, fmt.Errorf("terminal.engine: invalid %q (want pty or memory)", c.Terminal.Engine))
	}
	if c.Layout.MinWidth*2 > c.Layout.Width || c.Layout.MinHeight*2 > c.Layout.Height {
		errs = append(errs, fmt.Errorf("layout: %dx%d cannot hold two panes of %dx%d",
			c.Layout.Width, c.Layout.Height, c.Layout.MinWidth, c.Layout.MinHeight))
	}
	for event, command := range c.Hooks {
		if !mux.IsEvent(event) {
			errs = append(errs, fmt.Errorf("hooks: unknown event %q", event))
		}
		if strings.TrimSpace(command) == "" {
			errs = append(errs, fmt.Errorf("hooks.%s: command is empty", event))
		}
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// MuxOptions converts the layout and workspace sections for a SessionState.
func (c Config) MuxOptions() mux.Options {
	return mux.Options{
		Bounds:       layout.Rect{W: c.Layout.Width, H: c.Layout.Height},
		Constraints:  layout.Constraints{MinWidth: c.Layout.MinWidth, MinHeight: c.Layout.MinHeight},
		FocusHistory: c.Workspace.FocusHistory,
	}
}

// Loader caches config values and reloads when the file changes.
type Loader struct {
	path     string
	lastRead fileState
	cached   Config
}

type fileState struct {
	modTime time.Time
	size    int64
	exists  bool
}

func (s fileState) equal(other fileState) bool {
	return s.exists == other.exists && s.size == other.size && s.modTime.Equal(other.modTime)
}

// NewLoader creates a config loader for the provided path.
func NewLoader(path string) *Loader {
	return &Loader{path: strings.TrimSpace(path), cached: Defaults()}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.path }

// Load returns the cached config, reloading if the file changed. The
// boolean reports whether a reload happened.
func (l *Loader) Load() (Config, bool, error) {
	if l == nil {
		return Defaults(), false, errors.New("nil loader")
	}
	if l.path == "" {
		return Defaults(), false, errors.New("empty config path")
	}
	state := fileState{}
	info, err := os.Stat(l.path)
	switch {
	case err == nil:
		state = fileState{modTime: info.ModTime(), size: info.Size(), exists: true}
	case !os.IsNotExist(err):
		return l.cached, false, err
	}
	if state.equal(l.lastRead) && (state.exists || l.lastRead.exists) {
		return l.cached, false, nil
	}
	cfg, err := Load(l.path)
	if err != nil {
		return l.cached, false, err
	}
	l.cached = cfg
	l.lastRead = state
	return cfg, true, nil
}
