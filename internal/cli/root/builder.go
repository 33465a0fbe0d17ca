package root

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pweiskircher/cmux/internal/cli/output"
	"github.com/pweiskircher/cmux/internal/cli/spec"
)

// BuildApp constructs a CLI app from the command spec and registry.
func BuildApp(specDoc *spec.Spec, deps Dependencies, reg *Registry) (*cli.Command, error) {
	switch {
	case specDoc == nil:
		return nil, fmt.Errorf("spec is nil")
	case reg == nil:
		return nil, fmt.Errorf("registry is nil")
	}
	if err := reg.EnsureHandlers(specDoc); err != nil {
		return nil, err
	}
	flags, err := buildFlags(specDoc.GlobalFlags)
	if err != nil {
		return nil, err
	}
	b := builder{doc: specDoc, deps: deps, reg: reg}
	app := &cli.Command{
		Name:           specDoc.App.Name,
		Usage:          specDoc.App.Summary,
		Description:    specDoc.App.Summary,
		Flags:          flags,
		Writer:         deps.Stdout,
		ErrWriter:      deps.Stderr,
		ExitErrHandler: keepExitError,
		Before:         b.printVersion,
	}
	for _, cmdSpec := range specDoc.Commands {
		cmd, err := b.command(cmdSpec)
		if err != nil {
			return nil, err
		}
		app.Commands = append(app.Commands, cmd)
	}
	applyHelpTemplates(app, specDoc)
	return app, nil
}

// keepExitError leaves exit codes to the caller of Run.
func keepExitError(context.Context, *cli.Command, error) {}

type builder struct {
	doc  *spec.Spec
	deps Dependencies
	reg  *Registry
}

func (b builder) printVersion(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd == nil || !cmd.Bool("version") {
		return ctx, nil
	}
	out := b.deps.Stdout
	if out == nil {
		out = io.Discard
	}
	_, _ = fmt.Fprintf(out, "%s %s\n", b.doc.App.Name, b.deps.Version)
	return ctx, cli.Exit("", 0)
}

func (b builder) command(cmdSpec spec.Command) (*cli.Command, error) {
	cmd := &cli.Command{
		Name:           cmdSpec.Name,
		Aliases:        cmdSpec.Aliases,
		Usage:          cmdSpec.Summary,
		Description:    cmdSpec.Description,
		Hidden:         cmdSpec.Hidden,
		ArgsUsage:      argsUsage(cmdSpec.Args),
		ExitErrHandler: keepExitError,
	}
	if cmdSpec.Passthrough {
		// Forwarded commands parse their own argv; only globals are peeled off.
		cmd.SkipFlagParsing = true
		cmd.ArgsUsage = strings.TrimSpace("[flags] " + cmd.ArgsUsage)
	} else {
		flags, err := buildFlags(cmdSpec.Flags)
		if err != nil {
			return nil, fmt.Errorf("flags for %s: %w", cmdSpec.ID, err)
		}
		cmd.Flags = flags
		cmd.Arguments = buildArguments(cmdSpec.Args)
	}
	for _, child := range cmdSpec.Subcommands {
		sub, err := b.command(child)
		if err != nil {
			return nil, err
		}
		cmd.Commands = append(cmd.Commands, sub)
	}
	if handler, ok := b.reg.HandlerFor(cmdSpec.ID); ok && handler != nil {
		cmd.Action = func(ctx context.Context, cliCmd *cli.Command) error {
			return b.run(ctx, cliCmd, cmdSpec, handler)
		}
	}
	return cmd, nil
}

// context assembles what a handler sees. It reports done when the
// invocation was fully served here, as with help for a forwarded command.
func (b builder) context(ctx context.Context, cliCmd *cli.Command, cmdSpec spec.Command) (CommandContext, bool, error) {
	var args []string
	if cliCmd != nil && cliCmd.Args() != nil {
		args = cliCmd.Args().Slice()
	}
	globals := readGlobals(cliCmd)
	if cmdSpec.Passthrough {
		if wantsHelp(args) {
			return CommandContext{}, true, writePassthroughHelp(b.deps.Stdout, b.doc, cmdSpec, args)
		}
		stripped, err := stripGlobals(b.doc.GlobalFlags, args, &globals)
		if err != nil {
			return CommandContext{}, false, err
		}
		args = stripped
	} else if err := checkArguments(cmdSpec, cliCmd); err != nil {
		return CommandContext{}, false, err
	}
	if args == nil {
		args = []string{}
	}
	return CommandContext{
		Context: ctx,
		Args:    args,
		Spec:    cmdSpec,
		Cmd:     cliCmd,
		Deps:    b.deps,
		Globals: globals,
		JSON:    globals.JSON,
		Out:     b.deps.Stdout,
		ErrOut:  b.deps.Stderr,
		Stdin:   b.deps.Stdin,
	}, false, nil
}

func (b builder) run(ctx context.Context, cliCmd *cli.Command, cmdSpec spec.Command, handler Handler) error {
	commandCtx, done, err := b.context(ctx, cliCmd, cmdSpec)
	if err != nil || done {
		return err
	}
	if commandCtx.JSON && !cmdSpec.JSON {
		return fmt.Errorf("command %s does not support --json", cmdSpec.Name)
	}
	if err := confirm(commandCtx, cliCmd); err != nil {
		return err
	}
	start := time.Now()
	err = handler(commandCtx)
	if err == nil || !commandCtx.JSON {
		return err
	}
	// In JSON mode the failure is reported as an envelope on stdout and a
	// one-line summary on stderr.
	meta := output.NewMeta(cmdSpec.ID, b.deps.Version).Since(start)
	_ = output.WriteError(commandCtx.Out, meta, failureFor(b.doc.App.Name, err))
	if commandCtx.ErrOut != nil {
		_, _ = fmt.Fprintf(commandCtx.ErrOut, "%s: %s\n", b.doc.App.Name, err)
	}
	return cli.Exit("", 1)
}

// wantsHelp reports whether --help appears before the end-of-flags marker.
func wantsHelp(args []string) bool {
	if i := slices.Index(args, "--"); i >= 0 {
		args = args[:i]
	}
	return slices.Contains(args, "--help")
}

// writePassthroughHelp prints help for a forwarded command. For the verb
// command the first argument picks the declared command it stands for.
func writePassthroughHelp(w io.Writer, specDoc *spec.Spec, cmdSpec spec.Command, args []string) error {
	if w == nil {
		w = io.Discard
	}
	target := cmdSpec
	if cmdSpec.Method == "" && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		found := specDoc.FindByName(args[0])
		if found == nil {
			found = specDoc.FindByID(args[0])
		}
		if found != nil {
			target = *found
		}
	}
	return WriteCommandHelp(w, specDoc.App.Name, target.Name, target, specDoc.GlobalFlags)
}

func argsUsage(args []spec.Arg) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		name := strings.ToUpper(arg.Name)
		if arg.Variadic {
			name += "..."
		}
		if !arg.Required {
			name = "[" + name + "]"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, " ")
}
