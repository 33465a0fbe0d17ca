package app

import (
	"github.com/pweiskircher/cmux/internal/cli/catalog"
	"github.com/pweiskircher/cmux/internal/cli/root"
	"github.com/pweiskircher/cmux/internal/cli/spec"
)

func registerAll(reg *root.Registry, specDoc *spec.Spec) {
	if reg == nil {
		return
	}
	catalog.RegisterAll(reg, specDoc)
}
