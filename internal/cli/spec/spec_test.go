package spec

import (
	"strings"
	"testing"

	"github.com/pweiskircher/cmux/internal/command"
)

func TestLoadDefaultSpec(t *testing.T) {
	spec, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() err=%v", err)
	}
	if spec.App.Name == "" {
		t.Fatalf("expected app name set")
	}
	if len(spec.Commands) == 0 {
		t.Fatalf("expected commands")
	}
}

func TestSetHookEventDescriptionKeepsComma(t *testing.T) {
	spec, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() err=%v", err)
	}
	cmd := spec.FindByName("set-hook")
	if cmd == nil || len(cmd.Args) == 0 {
		t.Fatalf("set-hook missing or has no args")
	}
	if got := cmd.Args[0].Description; got != "Event name, e.g. workspace-created" {
		t.Fatalf("event description = %q", got)
	}
}

func TestValidateRejectsCommaSplitFlowMapping(t *testing.T) {
	doc := []byte("version: 1\napp:\n  name: cmux\n  summary: x\ncommands:\n  - name: ping\n    id: ping\n    summary: ping\n    args:\n      - {name: event, description: Event name, e.g. x}\n")
	if err := Validate(doc); err == nil {
		t.Fatalf("expected unknown arg key to be rejected")
	}
}

func TestValidateRejectsEmpty(t *testing.T) {
	if err := Validate([]byte("")); err == nil {
		t.Fatalf("expected error for empty spec")
	}
}

func TestValidateRejectsMissingCommandName(t *testing.T) {
	doc := []byte("version: 1\napp:\n  name: cmux\n  summary: x\ncommands:\n  - id: ping\n    summary: ping\n")
	if err := Validate(doc); err == nil {
		t.Fatalf("expected error for command without name")
	}
}

func TestValidateRejectsUnknownFlagType(t *testing.T) {
	doc := []byte("version: 1\napp:\n  name: cmux\n  summary: x\ncommands:\n  - name: ping\n    id: ping\n    summary: ping\n    flags:\n      - {name: n, type: bytes}\n")
	if err := Validate(doc); err == nil {
		t.Fatalf("expected error for unknown flag type")
	}
}

func TestParseRejectsShadowedNames(t *testing.T) {
	head := "version: 1\napp:\n  name: cmux\n  summary: x\ncommands:\n"
	cases := map[string]string{
		"duplicate command id": "  - {name: a, id: same, summary: a}\n  - {name: b, id: same, summary: b}\n",
		"used by both":         "  - {name: new-workspace, id: workspace.create, summary: a}\n  - {name: new-tab, id: tab.create, summary: b, aliases: [new-workspace]}\n",
	}
	for want, body := range cases {
		_, err := Parse([]byte(head + body))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("Parse(%s) = %v", want, err)
		}
	}
	if _, err := Parse([]byte(head + "  - {name: a, id: a, summary: a, subcommands: [{name: a, id: a.a, summary: x}]}\n")); err != nil {
		t.Fatalf("subcommand reusing a parent name: %v", err)
	}
}

func TestForwardedMethodsAreKnown(t *testing.T) {
	spec, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() err=%v", err)
	}
	forwarded := spec.Forwarded()
	if len(forwarded) == 0 {
		t.Fatalf("expected passthrough commands")
	}
	for _, cmd := range forwarded {
		if cmd.Method == "" {
			continue
		}
		if !command.Known(cmd.Method) {
			t.Fatalf("%s forwards to unknown method %q", cmd.Name, cmd.Method)
		}
	}
}

func TestFindByNameMatchesAliases(t *testing.T) {
	spec, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() err=%v", err)
	}
	cmd := spec.FindByName("surface-action")
	if cmd == nil || cmd.Name != "tab-action" {
		t.Fatalf("FindByName(surface-action) = %+v", cmd)
	}
	if spec.FindByName("split-window-nope") != nil {
		t.Fatalf("expected no match")
	}
	if spec.FindByName("start") != nil {
		t.Fatalf("subcommands must not match top-level names")
	}
}

func TestFindByIDIncludesSubcommands(t *testing.T) {
	spec, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() err=%v", err)
	}
	cmd := spec.FindByID("daemon.stop")
	if cmd == nil || !cmd.Confirm {
		t.Fatalf("FindByID(daemon.stop) = %+v", cmd)
	}
	if got := spec.FindByID("tab.action"); got == nil || got.Method != "tab.action" {
		t.Fatalf("FindByID(tab.action) = %+v", got)
	}
}
