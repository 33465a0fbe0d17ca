package terminal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pweiskircher/cmux/internal/muxerr"
)

// PipeText runs command through "sh -c" with text on stdin and waits for it.
func PipeText(ctx context.Context, command, text string, env []string) error {
	if strings.TrimSpace(command) == "" {
		return muxerr.InvalidArgument("pipe-pane requires a command")
	}
	_, err := runShell(ctx, command, text, env)
	return err
}

// RunShell runs command through "sh -c" and returns its standard output.
func RunShell(ctx context.Context, command string, env []string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", muxerr.InvalidArgument("run-shell requires a command")
	}
	return runShell(ctx, command, "", env)
}

func runShell(ctx context.Context, command, stdin string, env []string) (string, error) {
	// #nosec G204 - the command is supplied by the user on purpose.
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", strings.TrimSpace(command))
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = mergeEnv(cmd.Environ(), env)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("terminal: shell command failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("terminal: shell command failed: %w", err)
	}
	return stdout.String(), nil
}
