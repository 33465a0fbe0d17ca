package catalog

import (
	"github.com/pweiskircher/cmux/internal/cli/daemon"
	"github.com/pweiskircher/cmux/internal/cli/events"
	"github.com/pweiskircher/cmux/internal/cli/muxcmd"
	"github.com/pweiskircher/cmux/internal/cli/root"
	"github.com/pweiskircher/cmux/internal/cli/spec"
	"github.com/pweiskircher/cmux/internal/cli/version"
)

// RegisterAll registers every CLI command. Forwarded commands are taken
// from specDoc so a new YAML entry needs no Go change.
func RegisterAll(reg *root.Registry, specDoc *spec.Spec) {
	if reg == nil {
		return
	}
	if specDoc != nil {
		forwarded := specDoc.Forwarded()
		ids := make([]string, 0, len(forwarded))
		for _, cmd := range forwarded {
			ids = append(ids, cmd.ID)
		}
		muxcmd.Register(reg, ids)
	}
	daemon.Register(reg)
	events.Register(reg)
	version.Register(reg)
}
