package sessiond

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/pweiskircher/cmux/internal/runenv"
)

func TestAutostartSequence(t *testing.T) {
	noDaemon := errors.New("no daemon")
	launchFailed := errors.New("exec format error")
	cases := []struct {
		name      string
		probe     error
		launch    error
		want      error
		launched  bool
		waitedFor string
	}{
		{name: "already running"},
		{name: "cold start", probe: noDaemon, launched: true, waitedFor: "cmux.sock"},
		{name: "socket busy", probe: ErrDaemonProbeTimeout, want: ErrDaemonProbeTimeout},
		{name: "launch fails", probe: noDaemon, launch: launchFailed, want: launchFailed, launched: true},
	}
	for _, tc := range cases {
		launched, waited := false, ""
		err := autostart{
			probe:  func(context.Context, string, string) error { return tc.probe },
			launch: func(string) error { launched = true; return tc.launch },
			wait:   func(_ context.Context, socket, _ string) error { waited = socket; return nil },
		}.run(context.Background(), "cmux.sock", "v1")
		if !errors.Is(err, tc.want) || (tc.want == nil && err != nil) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
		if launched != tc.launched || waited != tc.waitedFor {
			t.Fatalf("%s: launched=%v waited=%q", tc.name, launched, waited)
		}
	}
}

func TestLauncherStartsDetachedDaemon(t *testing.T) {
	logFile, err := os.Create(filepath.Join(t.TempDir(), "cmuxd.log"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	var started *exec.Cmd
	l := launcher{
		executable: func() (string, error) { return "/usr/local/bin/cmux", nil },
		command: func(name string, args ...string) *exec.Cmd {
			return &exec.Cmd{Path: name, Args: append([]string{name}, args...)}
		},
		logPath: func() (string, error) { return logFile.Name(), nil },
		environ: func() []string { return []string{"TERM=xterm"} },
		openLog: func(string) (*os.File, error) { return logFile, nil },
		start:   func(cmd *exec.Cmd) error { started = cmd; return nil },
	}
	if err := l.launch("/run/cmux.sock"); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if started == nil || strings.Join(started.Args, " ") != "/usr/local/bin/cmux daemon" {
		t.Fatalf("started %+v", started)
	}
	if started.Stdout != logFile || started.Stderr != logFile || started.SysProcAttr == nil {
		t.Fatalf("daemon not detached onto the log: %+v", started)
	}
	if !slices.Contains(started.Env, runenv.SocketEnv+"=/run/cmux.sock") {
		t.Fatalf("env %v lacks the socket", started.Env)
	}

	l.executable = func() (string, error) { return "", errors.New("no /proc") }
	if err := l.launch("x"); err == nil || !strings.Contains(err.Error(), "locate cmux binary") {
		t.Fatalf("launch without executable: %v", err)
	}
}

func TestPollStopsOnDoneOrError(t *testing.T) {
	calls := 0
	err := poll(context.Background(), time.Second, func() (bool, error) {
		calls++
		return calls == 2, nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("poll = %v after %d calls", err, calls)
	}
	boom := errors.New("boom")
	if err := poll(context.Background(), time.Second, func() (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Fatalf("poll error = %v", err)
	}
	err = poll(context.Background(), 10*time.Millisecond, func() (bool, error) { return false, nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("poll limit = %v", err)
	}
}

func TestHandleSignalsNil(t *testing.T) {
	var d *Daemon
	d.handleSignals()
}

func TestWaitForDaemonCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := waitForDaemon(ctx, filepath.Join(t.TempDir(), "missing.sock"), "v1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConnectWithoutAutoStartFails(t *testing.T) {
	_, err := Connect(context.Background(), ConnectOptions{
		SocketPath: filepath.Join(t.TempDir(), "missing.sock"),
		Version:    testVersion,
	})
	if !IsConnectionError(err) {
		t.Fatalf("Connect: %v", err)
	}
}

func TestConnectFindsRunningDaemon(t *testing.T) {
	_, paths := startTestDaemon(t)
	client, err := Connect(context.Background(), ConnectOptions{SocketPath: paths.socket, Version: testVersion, AutoStart: true})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()
	callTest(t, client, "workspace.list", nil)
}

func TestStopDaemonWithoutDaemonIsNoop(t *testing.T) {
	dir := t.TempDir()
	if err := StopDaemon(context.Background(), filepath.Join(dir, "x.sock"), filepath.Join(dir, "x.pid"), testVersion); err != nil {
		t.Fatalf("StopDaemon: %v", err)
	}
}

func TestReadPidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pid")
	if err := os.WriteFile(path, []byte(" 4242\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if pid, err := readPidFile(path); err != nil || pid != 4242 {
		t.Fatalf("readPidFile = %d, %v", pid, err)
	}
	if err := os.WriteFile(path, []byte("nope"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := readPidFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := os.WriteFile(path, []byte("0"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := readPidFile(path); err == nil {
		t.Fatalf("pid 0 accepted")
	}
}
