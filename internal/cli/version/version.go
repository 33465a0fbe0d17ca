package version

import (
	"fmt"

	"github.com/pweiskircher/cmux/internal/cli/output"
	"github.com/pweiskircher/cmux/internal/cli/root"
	"github.com/pweiskircher/cmux/internal/identity"
)

// Register registers version handler.
func Register(reg *root.Registry) {
	reg.Register("version", runVersion)
}

func runVersion(ctx root.CommandContext) error {
	name := ctx.Deps.AppName
	if name == "" {
		name = identity.CLIName
	}
	if ctx.JSON {
		meta := output.NewMeta("version", ctx.Deps.Version)
		return output.WriteSuccess(ctx.Out, meta, map[string]string{"name": name, "version": ctx.Deps.Version})
	}
	_, err := fmt.Fprintf(ctx.Out, "%s %s\n", name, ctx.Deps.Version)
	return err
}
