package catalog

import (
	"testing"

	"github.com/pweiskircher/cmux/internal/cli/root"
	"github.com/pweiskircher/cmux/internal/cli/spec"
)

func TestRegisterAllCoversSpec(t *testing.T) {
	specDoc, err := spec.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	reg := root.NewRegistry()
	RegisterAll(reg, specDoc)
	if err := reg.EnsureHandlers(specDoc); err != nil {
		t.Fatalf("EnsureHandlers: %v", err)
	}
	for _, id := range []string{"daemon", "daemon.stop", "events", "version", "call", "tab.action", "wait.wait"} {
		if _, ok := reg.HandlerFor(id); !ok {
			t.Fatalf("missing handler %q", id)
		}
	}
}

func TestRegisterAllWithoutSpec(t *testing.T) {
	reg := root.NewRegistry()
	RegisterAll(reg, nil)
	if _, ok := reg.HandlerFor("version"); !ok {
		t.Fatalf("missing version handler")
	}
	if _, ok := reg.HandlerFor("call"); ok {
		t.Fatalf("forwarded commands need a spec")
	}
	RegisterAll(nil, nil)
}
