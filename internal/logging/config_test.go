package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveDefaultsByMode(t *testing.T) {
	cli, err := Config{}.resolve(ModeCLI)
	if err != nil {
		t.Fatalf("resolve cli: %v", err)
	}
	if cli.level != slog.LevelError || cli.sink != SinkStderr || cli.format != FormatText {
		t.Fatalf("cli defaults = %+v", cli)
	}
	daemon, err := Config{}.resolve(ModeDaemon)
	if err != nil {
		t.Fatalf("resolve daemon: %v", err)
	}
	if daemon.level != slog.LevelInfo || daemon.sink != SinkFile || daemon.format != FormatJSON {
		t.Fatalf("daemon defaults = %+v", daemon)
	}
	if daemon.rotate.MaxSizeMB != 20 || daemon.rotate.MaxBackups != 5 || daemon.rotate.MaxAgeDays != 7 {
		t.Fatalf("rotation defaults = %+v", daemon.rotate)
	}
}

func TestResolveOverrides(t *testing.T) {
	s, err := Config{Level: "Warning", Sink: "NONE", Rotate: Rotation{MaxBackups: 2}}.resolve(ModeDaemon)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.level != slog.LevelWarn || s.sink != SinkNone || s.format != FormatJSON || s.rotate.MaxBackups != 2 {
		t.Fatalf("resolved = %+v", s)
	}
}

func TestWithEnvOverridesConfig(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogIncludePayloads, "true")
	t.Setenv(EnvLogAddSource, "maybe")
	t.Setenv(EnvLogMaxBackups, "9")
	t.Setenv(EnvLogMaxAgeDays, "soon")
	t.Setenv(EnvLogCompress, "false")
	cfg := Config{Level: "error", AddSource: true, Rotate: Rotation{MaxAgeDays: 3}}.WithEnv()
	if cfg.Level != "debug" || !cfg.IncludePayloads || !cfg.AddSource {
		t.Fatalf("WithEnv = %+v", cfg)
	}
	if cfg.Rotate.MaxBackups != 9 || cfg.Rotate.MaxAgeDays != 3 || cfg.Rotate.Compress == nil || *cfg.Rotate.Compress {
		t.Fatalf("WithEnv rotation = %+v", cfg.Rotate)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	for _, cfg := range []Config{
		{Level: "loud"},
		{Format: "xml"},
		{Sink: "syslog"},
		{Rotate: Rotation{MaxAgeDays: -1}},
	} {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("Validate(%+v) accepted", cfg)
		}
	}
	if err := (Config{Level: "info", Format: "json", Sink: "file"}).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestInitWritesToFileSink(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	path := filepath.Join(t.TempDir(), "logs", "cmuxd.log")
	closeFn, err := Init(context.Background(), Config{Sink: "file", File: path}, InitOptions{Version: "test", Mode: ModeDaemon})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	slog.Info("daemon started", slog.String("socket", "x.sock"))
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"daemon started"`) || !strings.Contains(string(data), `"mode":"daemon"`) {
		t.Fatalf("unexpected log output: %s", data)
	}
}

func TestModeFromArgs(t *testing.T) {
	cases := []struct {
		args []string
		want Mode
	}{
		{nil, ModeCLI},
		{[]string{"cmux"}, ModeCLI},
		{[]string{"cmux", "daemon"}, ModeDaemon},
		{[]string{"cmux", "--json", "daemon"}, ModeDaemon},
		{[]string{"cmux", "--socket", "/tmp/s", "daemon"}, ModeDaemon},
		{[]string{"cmux", "daemon", "--websocket-addr", "127.0.0.1:7710"}, ModeDaemon},
		{[]string{"cmux", "daemon", "status"}, ModeCLI},
		{[]string{"cmux", "new-workspace"}, ModeCLI},
	}
	for _, tc := range cases {
		if got := ModeFromArgs(tc.args); got != tc.want {
			t.Fatalf("ModeFromArgs(%v) = %v, want %v", tc.args, got, tc.want)
		}
	}
}
