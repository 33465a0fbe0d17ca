package hooks

import (
	"errors"
	"testing"

	"github.com/pweiskircher/cmux/internal/muxerr"
)

func TestSetListUnset(t *testing.T) {
	r := NewRegistry()
	if err := r.Set("workspace-created", "echo created"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := r.Set("pane-split", "display-message split"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	list := r.List()
	if len(list) != 2 || list[0].Event != "pane-split" || list[1].Command != "echo created" {
		t.Fatalf("unexpected list %#v", list)
	}
	if !r.Unset("workspace-created") {
		t.Fatalf("expected Unset to report removal")
	}
	if r.Unset("workspace-created") {
		t.Fatalf("second Unset should report nothing removed")
	}
	if _, ok := r.Lookup("workspace-created"); ok {
		t.Fatalf("hook still bound after unset")
	}
}

func TestSetValidation(t *testing.T) {
	r := NewRegistry()
	if err := r.Set(" ", "x"); !errors.Is(err, muxerr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if err := r.Set("pane-split", ""); !errors.Is(err, muxerr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestApplyPresetsKeepsRuntimeBindings(t *testing.T) {
	r := NewRegistry()
	r.ApplyPresets(map[string]string{"pane-split": "a", "surface-created": "b"})
	if err := r.Set("pane-split", "runtime"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	r.ApplyPresets(map[string]string{"pane-split": "c", "workspace-closed": "d"})
	if cmd, _ := r.Lookup("pane-split"); cmd != "runtime" {
		t.Fatalf("runtime binding replaced: %q", cmd)
	}
	if _, ok := r.Lookup("surface-created"); ok {
		t.Fatalf("stale preset kept")
	}
	if cmd, _ := r.Lookup("workspace-closed"); cmd != "d" {
		t.Fatalf("new preset missing: %q", cmd)
	}
}
