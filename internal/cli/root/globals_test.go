package root

import (
	"strings"
	"testing"
	"time"

	"github.com/pweiskircher/cmux/internal/cli/spec"
	"github.com/pweiskircher/cmux/internal/config"
	"github.com/pweiskircher/cmux/internal/runenv"
)

func testGlobalFlags() []spec.Flag {
	return []spec.Flag{
		{Name: "socket", Type: "path"},
		{Name: "json", Type: "bool"},
		{Name: "id-format", Type: "enum", Enum: []string{"refs", "ids", "both"}},
		{Name: "timeout", Type: "duration", LeadingOnly: true},
		{Name: "no-autostart", Type: "bool"},
	}
}

func TestStripGlobals(t *testing.T) {
	g := Globals{IDFormat: IDFormatRefs}
	args := []string{"--tab", "tab:2", "--json", "--id-format=both", "--socket", "/tmp/s", "--timeout", "5", "--", "--json"}
	out, err := stripGlobals(testGlobalFlags(), args, &g)
	if err != nil {
		t.Fatalf("stripGlobals err=%v", err)
	}
	want := "--tab tab:2 --timeout 5 -- --json"
	if got := strings.Join(out, " "); got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
	if !g.JSON || g.IDFormat != IDFormatBoth || g.Socket != "/tmp/s" {
		t.Fatalf("globals = %+v", g)
	}
}

func TestStripGlobalsErrors(t *testing.T) {
	g := Globals{}
	if _, err := stripGlobals(testGlobalFlags(), []string{"--socket"}, &g); err == nil {
		t.Fatalf("expected missing value error")
	}
	if _, err := stripGlobals(testGlobalFlags(), []string{"--id-format", "uuids"}, &g); err == nil {
		t.Fatalf("expected enum error")
	}
	if _, err := stripGlobals(testGlobalFlags(), []string{"--json=maybe"}, &g); err == nil {
		t.Fatalf("expected bool parse error")
	}
}

func TestStripGlobalsExplicitFalse(t *testing.T) {
	g := Globals{JSON: true}
	if _, err := stripGlobals(testGlobalFlags(), []string{"--json=false", "--no-autostart"}, &g); err != nil {
		t.Fatalf("stripGlobals err=%v", err)
	}
	if g.JSON || !g.NoAutostart {
		t.Fatalf("globals = %+v", g)
	}
}

func TestCallTimeout(t *testing.T) {
	if got := (Globals{Timeout: 3 * time.Second}).CallTimeout(); got != 3*time.Second {
		t.Fatalf("CallTimeout() = %v", got)
	}
	if got := (Globals{}).CallTimeout(); got != runenv.CallTimeout() {
		t.Fatalf("CallTimeout() = %v, want env default", got)
	}
}

func TestConnectOptionsSocketOrder(t *testing.T) {
	cfg := config.Defaults()
	cfg.Daemon.Socket = "/tmp/from-config.sock"
	ctx := CommandContext{Deps: Dependencies{Version: "1.0.0", Config: cfg}}
	opts := ctx.ConnectOptions()
	if opts.SocketPath != "/tmp/from-config.sock" || !opts.AutoStart || opts.Version != "1.0.0" {
		t.Fatalf("ConnectOptions() = %+v", opts)
	}
	ctx.Globals = Globals{Socket: "/tmp/flag.sock", NoAutostart: true}
	opts = ctx.ConnectOptions()
	if opts.SocketPath != "/tmp/flag.sock" || opts.AutoStart {
		t.Fatalf("ConnectOptions() = %+v", opts)
	}
}

func TestConnectWithoutDialer(t *testing.T) {
	if _, err := (CommandContext{}).Connect(); err == nil {
		t.Fatalf("expected error without dialer")
	}
}
