package root

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pweiskircher/cmux/internal/cli/spec"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

func TestBuildAppErrors(t *testing.T) {
	reg := NewRegistry()
	if _, err := BuildApp(nil, Dependencies{}, reg); err == nil {
		t.Fatalf("expected error for nil spec")
	}
	if _, err := BuildApp(&spec.Spec{}, Dependencies{}, nil); err == nil {
		t.Fatalf("expected error for nil registry")
	}
}

func TestBuildAppRunsHandler(t *testing.T) {
	specDoc := &spec.Spec{
		App: spec.AppSpec{Name: "cmux"},
		Commands: []spec.Command{
			{Name: "cmd", ID: "cmd", Summary: "do"},
		},
	}
	reg := NewRegistry()
	called := false
	reg.Register("cmd", func(ctx CommandContext) error {
		called = true
		return nil
	})
	app, err := BuildApp(specDoc, Dependencies{}, reg)
	if err != nil {
		t.Fatalf("BuildApp() error: %v", err)
	}
	if err := app.Run(context.Background(), []string{"cmux", "cmd"}); err != nil {
		t.Fatalf("app.Run() error: %v", err)
	}
	if !called {
		t.Fatalf("expected handler called")
	}
}

func TestRunHandlerJSONUnsupported(t *testing.T) {
	specDoc := &spec.Spec{
		App:         spec.AppSpec{Name: "cmux"},
		GlobalFlags: []spec.Flag{{Name: "json", Type: "bool"}},
		Commands: []spec.Command{
			{Name: "cmd", ID: "cmd", Summary: "do"},
		},
	}
	reg := NewRegistry()
	reg.Register("cmd", func(ctx CommandContext) error { return nil })
	app, err := BuildApp(specDoc, Dependencies{}, reg)
	if err != nil {
		t.Fatalf("BuildApp() error: %v", err)
	}
	if err := app.Run(context.Background(), []string{"cmux", "cmd", "--json"}); err == nil {
		t.Fatalf("expected error for unsupported json")
	}
}

func TestRunHandlerJSONErrorResponse(t *testing.T) {
	specDoc := &spec.Spec{
		App:         spec.AppSpec{Name: "cmux"},
		GlobalFlags: []spec.Flag{{Name: "json", Type: "bool"}},
		Commands: []spec.Command{
			{Name: "cmd", ID: "cmd", Summary: "do", JSON: true},
		},
	}
	var out, errOut bytes.Buffer
	reg := NewRegistry()
	reg.Register("cmd", func(ctx CommandContext) error {
		return muxerr.New(muxerr.CodeNotFound, "no such tab")
	})
	app, err := BuildApp(specDoc, Dependencies{Stdout: &out, Stderr: &errOut}, reg)
	if err != nil {
		t.Fatalf("BuildApp() error: %v", err)
	}
	if err := app.Run(context.Background(), []string{"cmux", "cmd", "--json"}); err == nil {
		t.Fatalf("expected error from handler")
	}
	if !strings.Contains(out.String(), `"not_found"`) || !strings.Contains(out.String(), "no such tab") {
		t.Fatalf("expected json error output, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "cmux: no such tab") {
		t.Fatalf("expected stderr message, got %q", errOut.String())
	}
}

func TestPassthroughReceivesRawArgs(t *testing.T) {
	specDoc := &spec.Spec{
		App: spec.AppSpec{Name: "cmux"},
		GlobalFlags: []spec.Flag{
			{Name: "json", Type: "bool"},
			{Name: "socket", Type: "path"},
		},
		Commands: []spec.Command{{
			Name:        "new-pane",
			ID:          "pane.split",
			Method:      "pane.split",
			Passthrough: true,
			JSON:        true,
			Flags:       []spec.Flag{{Name: "horizontal", Type: "bool", Short: []string{"-h"}, ShortOnly: true}},
		}},
	}
	var got CommandContext
	reg := NewRegistry()
	reg.Register("pane.split", func(ctx CommandContext) error {
		got = ctx
		return nil
	})
	app, err := BuildApp(specDoc, Dependencies{}, reg)
	if err != nil {
		t.Fatalf("BuildApp() error: %v", err)
	}
	argv := []string{"cmux", "new-pane", "-h", "--json", "--socket", "/tmp/x.sock", "--pane", "pane:2"}
	if err := app.Run(context.Background(), argv); err != nil {
		t.Fatalf("app.Run() error: %v", err)
	}
	want := []string{"-h", "--pane", "pane:2"}
	if strings.Join(got.Args, " ") != strings.Join(want, " ") {
		t.Fatalf("args = %v, want %v", got.Args, want)
	}
	if !got.JSON || got.Globals.Socket != "/tmp/x.sock" {
		t.Fatalf("globals not applied: %+v", got.Globals)
	}
}

func TestPassthroughHelpSkipsHandler(t *testing.T) {
	specDoc := &spec.Spec{
		App: spec.AppSpec{Name: "cmux"},
		Commands: []spec.Command{{
			Name:        "tab-action",
			ID:          "tab.action",
			Summary:     "Act on a tab",
			Method:      "tab.action",
			Passthrough: true,
			Flags:       []spec.Flag{{Name: "tab", Type: "string", Aliases: []string{"surface"}, Description: "Target tab"}},
		}},
	}
	var out bytes.Buffer
	reg := NewRegistry()
	reg.Register("tab.action", func(ctx CommandContext) error {
		return errors.New("handler should not run")
	})
	app, err := BuildApp(specDoc, Dependencies{Stdout: &out}, reg)
	if err != nil {
		t.Fatalf("BuildApp() error: %v", err)
	}
	if err := app.Run(context.Background(), []string{"cmux", "tab-action", "--help"}); err != nil {
		t.Fatalf("app.Run() error: %v", err)
	}
	for _, want := range []string{"Usage: cmux tab-action", "--tab, --surface", "Target tab"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("help missing %q:\n%s", want, out.String())
		}
	}
}

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(muxerr.New(muxerr.CodeNotSupported, "popup is not supported")); got != "not_supported" {
		t.Fatalf("ErrorCode(not supported) = %q", got)
	}
	if got := ErrorCode(errors.New("boom")); got != "internal" {
		t.Fatalf("ErrorCode(plain) = %q", got)
	}
}

func TestFailureForHints(t *testing.T) {
	f := failureFor("cmux", muxerr.New(muxerr.CodeNotSupported, "popup is not supported"))
	if f.Code != "not_supported" || !strings.Contains(f.Hint, "cmux --help") {
		t.Fatalf("not supported failure = %+v", f)
	}
	f = failureFor("cmux", muxerr.InvalidArgument("bad"))
	if f.Hint != "" || f.Message != "bad" {
		t.Fatalf("invalid argument failure = %+v", f)
	}
}

func TestWantsHelpStopsAtDoubleDash(t *testing.T) {
	if !wantsHelp([]string{"-t", "tab:1", "--help"}) {
		t.Fatalf("expected --help to be seen")
	}
	if wantsHelp([]string{"--", "--help"}) {
		t.Fatalf("--help after -- is an argument")
	}
	if got := argsUsage([]spec.Arg{{Name: "action", Required: true}, {Name: "keys", Variadic: true}}); got != "ACTION [KEYS...]" {
		t.Fatalf("argsUsage = %q", got)
	}
}
