//go:build !windows

package sessiond

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureDaemonCommand detaches the daemon into its own session so it
// outlives the terminal that autostarted it.
func configureDaemonCommand(cmd *exec.Cmd) {
	if cmd != nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	}
}

// signalDaemon asks pid to shut down. A pid that no longer exists is not
// an error.
func signalDaemon(pid int) error {
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}
