package muxcmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pweiskircher/cmux/internal/cli/root"
	"github.com/pweiskircher/cmux/internal/cli/spec"
	"github.com/pweiskircher/cmux/internal/command"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/runenv"
	"github.com/pweiskircher/cmux/internal/sessiond"
	"github.com/pweiskircher/cmux/internal/terminal"
)

const testVersion = "test"

type harness struct {
	t      *testing.T
	specs  *spec.Spec
	deps   root.Dependencies
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	socket := filepath.Join(dir, "cmux.sock")
	d, err := sessiond.NewDaemon(sessiond.DaemonConfig{
		Version:    testVersion,
		SocketPath: socket,
		PidPath:    filepath.Join(dir, "cmux.pid"),
		Command:    command.Options{Engine: terminal.NewMemoryEngine(0)},
	})
	if err != nil {
		t.Fatalf("NewDaemon: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Stop() })
	specs, err := spec.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	h := &harness{t: t, specs: specs}
	h.deps = root.Dependencies{
		Version: testVersion,
		Stdout:  &h.out,
		Stderr:  &h.errOut,
		Connect: func(ctx context.Context, opts sessiond.ConnectOptions) (*sessiond.Client, error) {
			return sessiond.Connect(ctx, sessiond.ConnectOptions{SocketPath: socket, Version: testVersion})
		},
		Ambient: func() runenv.Ambient { return runenv.Ambient{} },
	}
	return h
}

// run invokes the named command the way the CLI does after global flags
// have been stripped.
func (h *harness) run(name string, globals root.Globals, args ...string) error {
	h.t.Helper()
	h.out.Reset()
	h.errOut.Reset()
	cmdSpec := h.specs.FindByName(name)
	if cmdSpec == nil {
		h.t.Fatalf("unknown command %s", name)
	}
	if globals.IDFormat == "" {
		globals.IDFormat = root.IDFormatRefs
	}
	ctx := root.CommandContext{
		Context: context.Background(),
		Args:    args,
		Spec:    *cmdSpec,
		Deps:    h.deps,
		Globals: globals,
		JSON:    globals.JSON,
		Out:     &h.out,
		ErrOut:  &h.errOut,
	}
	return Run(ctx)
}

func (h *harness) mustRun(name string, args ...string) string {
	h.t.Helper()
	if err := h.run(name, root.Globals{}, args...); err != nil {
		h.t.Fatalf("%s %v: %v", name, args, err)
	}
	return h.out.String()
}

func TestListWorkspacesRendersTable(t *testing.T) {
	h := newHarness(t)
	h.mustRun("new-workspace", "--title", "build")
	out := h.mustRun("list-workspaces")
	if !strings.Contains(out, "WORKSPACE") || !strings.Contains(out, "workspace:1") || !strings.Contains(out, "build") {
		t.Fatalf("unexpected listing:\n%s", out)
	}
}

func TestCreateCommandsPrintOK(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun("new-workspace"); out != "OK workspace:1\n" {
		t.Fatalf("new-workspace = %q", out)
	}
	if out := h.mustRun("new-workspace"); out != "OK workspace:2\n" {
		t.Fatalf("second new-workspace = %q", out)
	}
	if out := h.mustRun("new-pane", "--workspace", "workspace:2"); !strings.HasPrefix(out, "OK pane:") {
		t.Fatalf("new-pane = %q", out)
	}
}

func TestJSONEnvelopeAndIDFormat(t *testing.T) {
	h := newHarness(t)
	h.mustRun("new-workspace")
	if err := h.run("list-workspaces", root.Globals{JSON: true, IDFormat: root.IDFormatIDs}); err != nil {
		t.Fatalf("list-workspaces: %v", err)
	}
	var envelope struct {
		Ok   bool `json:"ok"`
		Data struct {
			Workspaces []map[string]any `json:"workspaces"`
		} `json:"data"`
		Meta struct {
			Command string `json:"command"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(h.out.Bytes(), &envelope); err != nil {
		t.Fatalf("decode %q: %v", h.out.String(), err)
	}
	if !envelope.Ok || envelope.Meta.Command != "workspace.list" || len(envelope.Data.Workspaces) != 1 {
		t.Fatalf("unexpected envelope %s", h.out.String())
	}
	row := envelope.Data.Workspaces[0]
	if _, ok := row["ref"]; ok {
		t.Fatalf("ids format kept ref: %v", row)
	}
	if id, _ := row["id"].(string); id == "" {
		t.Fatalf("ids format dropped id: %v", row)
	}
}

func TestRenameTabRequiresTitle(t *testing.T) {
	h := newHarness(t)
	h.mustRun("new-workspace")
	err := h.run("rename-tab", root.Globals{}, "--tab", "tab:1")
	if err == nil || !strings.Contains(err.Error(), "requires a title") {
		t.Fatalf("rename-tab without title: %v", err)
	}
	h.mustRun("rename-tab", "--tab", "tab:1", "logs")
	out := h.mustRun("list-tabs")
	if !strings.Contains(out, "logs") {
		t.Fatalf("renamed title missing:\n%s", out)
	}
}

func TestUnsupportedVerbFailsWithoutDaemon(t *testing.T) {
	specs, err := spec.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	call := specs.FindByName("call")
	ctx := root.CommandContext{
		Context: context.Background(),
		Args:    []string{"popup", "-E"},
		Spec:    *call,
	}
	err = Run(ctx)
	if !errors.Is(err, muxerr.ErrNotSupported) || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("popup error = %v", err)
	}
}

func TestVerbCommandRunsAnyVerb(t *testing.T) {
	h := newHarness(t)
	h.mustRun("call", "new-window", "--title", "via-verb")
	out := h.mustRun("call", "workspace.list")
	if !strings.Contains(out, "via-verb") {
		t.Fatalf("verb command listing:\n%s", out)
	}
}

func TestWaitForSignalRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.mustRun("wait-for", "-S", "ready")
	h.mustRun("wait-for", "--timeout", "2", "ready")
	err := h.run("wait-for", root.Globals{}, "--timeout", "0.05", "never")
	if !errors.Is(err, muxerr.ErrTimedOut) {
		t.Fatalf("wait-for without signal: %v", err)
	}
}

func TestSetBufferFromClipboard(t *testing.T) {
	h := newHarness(t)
	h.deps.ReadClipboard = func() (string, error) { return "copied text", nil }
	h.mustRun("set-buffer", "-b", "clip", "--clipboard")
	out := h.mustRun("show-buffer", "clip")
	if out != "copied text\n" {
		t.Fatalf("show-buffer = %q", out)
	}
}

func TestWaitDeadline(t *testing.T) {
	args := command.Args{"name": "x"}
	got, err := waitDeadline(args, time.Second)
	if err != nil {
		t.Fatalf("waitDeadline err=%v", err)
	}
	if got != 31*time.Second || args["timeout"] != defaultWaitSeconds {
		t.Fatalf("default deadline = %v args=%v", got, args)
	}
	got, err = waitDeadline(command.Args{"timeout": "0"}, time.Second)
	if err != nil || got != 0 {
		t.Fatalf("zero timeout deadline = %v err=%v", got, err)
	}
	got, err = waitDeadline(command.Args{"timeout_ms": "500"}, time.Second)
	if err != nil || got != 1500*time.Millisecond {
		t.Fatalf("timeout_ms deadline = %v err=%v", got, err)
	}
	got, err = waitDeadline(command.Args{"signal": true}, time.Second)
	if err != nil || got != time.Second {
		t.Fatalf("signal deadline = %v err=%v", got, err)
	}
}
