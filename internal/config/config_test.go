package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pweiskircher/cmux/internal/mux"
)

func TestDefaultTemplateParses(t *testing.T) {
	cfg, err := Parse(defaultTemplate)
	if err != nil {
		t.Fatalf("Parse(template) error: %v", err)
	}
	if cfg.Terminal.Engine != EnginePTY || cfg.Layout.Width != 1000 || cfg.Workspace.FocusHistory != mux.DefaultFocusHistory {
		t.Fatalf("unexpected template config: %#v", cfg)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("terminal:\n  engine: MEMORY\nlayout:\n  width: 500\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Terminal.Engine != EngineMemory {
		t.Fatalf("engine = %q", cfg.Terminal.Engine)
	}
	if cfg.Layout.Width != 500 || cfg.Layout.Height != 1000 || cfg.Layout.MinWidth != 40 {
		t.Fatalf("layout = %#v", cfg.Layout)
	}
	opts := cfg.MuxOptions()
	if opts.Bounds.W != 500 || opts.Constraints.MinHeight != 20 {
		t.Fatalf("MuxOptions() = %#v", opts)
	}
}

func TestParseExpandsHomePaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg, err := Parse([]byte("daemon:\n  socket: ~/run/cmux.sock\nterminal:\n  shell: ~/bin/zsh\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Daemon.Socket != filepath.Join(home, "run/cmux.sock") || cfg.Terminal.Shell != filepath.Join(home, "bin/zsh") {
		t.Fatalf("paths not expanded: socket=%q shell=%q", cfg.Daemon.Socket, cfg.Terminal.Shell)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"engine":     "terminal:\n  engine: tmux\n",
		"hook event": "hooks:\n  not-an-event: ls\n",
		"tiny":       "layout:\n  width: 50\n  min_width: 40\n",
		"log level":  "logging:\n  level: loud\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("expected error for %q", doc)
			}
		})
	}
}

func TestEnsureDefaultCreatesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yml")
	created, err := EnsureDefault(path)
	if err != nil || !created {
		t.Fatalf("EnsureDefault() = %v, %v", created, err)
	}
	if err := os.WriteFile(path, []byte("workspace:\n  default_title: main\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	created, err = EnsureDefault(path)
	if err != nil || created {
		t.Fatalf("second EnsureDefault() = %v, %v", created, err)
	}
	cfg, err := Load(path)
	if err != nil || cfg.Workspace.DefaultTitle != "main" {
		t.Fatalf("Load() = %#v, %v", cfg.Workspace, err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Terminal.Engine != EnginePTY {
		t.Fatalf("expected defaults, got %#v", cfg.Terminal)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := Defaults()
	cfg.Hooks = map[string]string{mux.EventWorkspaceCreated: "display-message hi"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Hooks[mux.EventWorkspaceCreated] != "display-message hi" {
		t.Fatalf("hooks = %#v", loaded.Hooks)
	}
}

func TestLoaderReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("workspace:\n  default_title: one\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader := NewLoader(path)
	cfg, changed, err := loader.Load()
	if err != nil || !changed || cfg.Workspace.DefaultTitle != "one" {
		t.Fatalf("first Load() = %v, %v, %v", cfg.Workspace, changed, err)
	}
	if _, changed, _ := loader.Load(); changed {
		t.Fatalf("unchanged file should be served from cache")
	}
	if err := os.WriteFile(path, []byte("workspace:\n  default_title: second\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	cfg, changed, err = loader.Load()
	if err != nil || !changed || cfg.Workspace.DefaultTitle != "second" {
		t.Fatalf("reload = %v, %v, %v", cfg.Workspace, changed, err)
	}
}

func TestWatcherDeliversReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("workspace:\n  default_title: before\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader := NewLoader(path)
	if _, _, err := loader.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	w, err := Watch(loader)
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer w.Close()
	if err := os.WriteFile(path, []byte("workspace:\n  default_title: after-edit\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case cfg := <-w.Changes():
		if !strings.HasPrefix(cfg.Workspace.DefaultTitle, "after") {
			t.Fatalf("reloaded title = %q", cfg.Workspace.DefaultTitle)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}
}
