package entry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pweiskircher/cmux/internal/cli/app"
	"github.com/pweiskircher/cmux/internal/cli/root"
	"github.com/pweiskircher/cmux/internal/config"
	"github.com/pweiskircher/cmux/internal/identity"
	"github.com/pweiskircher/cmux/internal/logging"
)

// Run starts the CLI and returns the process exit code.
func Run(args []string, version string) int {
	return run(context.Background(), args, root.DefaultDependencies(version))
}

func run(ctx context.Context, args []string, deps root.Dependencies) int {
	appName := identity.ResolveBinaryName(args)
	deps.AppName = appName
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cfg, cfgPath, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	deps.Config = cfg
	deps.ConfigPath = cfgPath

	mode := logging.ModeFromArgs(args)
	closeLogger, err := logging.Init(ctx, cfg.Logging, logging.InitOptions{
		App:     identity.AppSlug,
		Version: deps.Version,
		Mode:    mode,
	})
	if err != nil {
		if mode == logging.ModeDaemon {
			fmt.Fprintf(stderr, "%s: init logging: %v\n", appName, err)
			return 1
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelError})))
		slog.Error("init logging failed; using stderr fallback", "err", err)
	} else if closeLogger != nil {
		defer func() { _ = closeLogger() }()
	}

	runner, err := app.NewRunner(deps)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	return exitCode(stderr, appName, runner.Run(ctx, args))
}

// loadConfig writes the commented default config.yml on first use and
// reads it back.
func loadConfig() (config.Config, string, error) {
	path, err := config.DefaultPath()
	if err != nil || path == "" {
		return config.Defaults(), "", nil
	}
	if _, err := config.EnsureDefault(path); err != nil {
		return config.Config{}, "", fmt.Errorf("init config: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

// exitCode maps a Run error to a status. Exit errors without a message
// were already reported by the handler.
func exitCode(stderr io.Writer, appName string, err error) int {
	if err == nil {
		return 0
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintf(stderr, "%s: %s\n", appName, msg)
		}
		return exitErr.ExitCode()
	}
	fmt.Fprintf(stderr, "%s: %v\n", appName, err)
	return 1
}
