package root

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/pweiskircher/cmux/internal/cli/spec"
	"github.com/pweiskircher/cmux/internal/identity"
)

// Runner executes the CLI using the command spec and registry.
type Runner struct {
	specDoc *spec.Spec
	deps    Dependencies
	app     *cli.Command
}

// NewRunner builds the CLI runner.
func NewRunner(specDoc *spec.Spec, deps Dependencies, reg *Registry) (*Runner, error) {
	app, err := BuildApp(specDoc, deps, reg)
	if err != nil {
		return nil, err
	}
	return &Runner{specDoc: specDoc, deps: deps, app: app}, nil
}

// Run executes the CLI with the given arguments.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if r == nil || r.app == nil {
		return fmt.Errorf("runner is not initialized")
	}
	// Help text follows the name the binary was invoked under.
	if appName := identity.ResolveBinaryName(args); r.specDoc != nil && appName != r.specDoc.App.Name {
		r.specDoc.App.Name = appName
		r.app.Name = appName
		applyHelpTemplates(r.app, r.specDoc)
	}
	args = applyVerbCommand(r.specDoc, args)
	return r.app.Run(ctx, args)
}

// applyVerbCommand routes "cmux split-window -h" style invocations, whose
// first word is not a declared command, through the verb command.
func applyVerbCommand(specDoc *spec.Spec, args []string) []string {
	if specDoc == nil || len(args) < 2 {
		return args
	}
	verbCmd := strings.TrimSpace(specDoc.App.VerbCommand)
	if verbCmd == "" {
		return args
	}
	for i := 1; i < len(args); i++ {
		switch tok := args[i]; {
		case tok == "--":
			return args
		case strings.HasPrefix(tok, "-"):
			if takesValue(specDoc.GlobalFlags, tok) {
				i++
			}
		case tok == "help" || specDoc.FindByName(tok) != nil:
			return args
		default:
			return slices.Insert(slices.Clone(args), i, verbCmd)
		}
	}
	return args
}

// takesValue reports whether a leading global flag consumes the next token.
func takesValue(flags []spec.Flag, tok string) bool {
	if strings.Contains(tok, "=") {
		return false
	}
	name := strings.TrimLeft(tok, "-")
	for _, flag := range flags {
		if flag.Name == name || slices.Contains(flag.Aliases, name) || slices.Contains(flag.Short, tok) {
			return flag.Type != "bool"
		}
	}
	return false
}
