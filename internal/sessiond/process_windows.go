//go:build windows

package sessiond

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureDaemonCommand keeps console control events of the parent away
// from the daemon.
func configureDaemonCommand(cmd *exec.Cmd) {
	if cmd != nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
	}
}

// signalDaemon has no SIGTERM to send on Windows, so it kills pid.
func signalDaemon(pid int) error {
	if pid <= 0 {
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
