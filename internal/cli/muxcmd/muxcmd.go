// Package muxcmd forwards tmux-style commands to the session daemon.
package muxcmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pweiskircher/cmux/internal/cli/output"
	"github.com/pweiskircher/cmux/internal/cli/root"
	"github.com/pweiskircher/cmux/internal/command"
	"github.com/pweiskircher/cmux/internal/runenv"
)

// defaultWaitSeconds bounds wait-for when neither --timeout nor
// --timeout-ms is given, so a forgotten signal cannot hang a script.
const defaultWaitSeconds = 30.0

// createdKeys names the ref and id a create command answers with.
var createdKeys = map[string][2]string{
	"workspace.create": {"workspace_ref", "workspace_id"},
	"pane.break":       {"workspace_ref", "workspace_id"},
	"pane.split":       {"pane_ref", "pane_id"},
	"surface.create":   {"tab_ref", "surface_id"},
}

// Register binds every forwarded command in commands.yaml to Run.
func Register(reg *root.Registry, ids []string) {
	for _, id := range ids {
		reg.Register(id, Run)
	}
}

// Run parses the argv locally, sends the call to the daemon and prints
// the result.
func Run(ctx root.CommandContext) error {
	argv := commandArgv(ctx)
	if len(argv) == 0 {
		return fmt.Errorf("%s requires a method or verb", ctx.Spec.Name)
	}
	argv, err := withClipboard(ctx, argv)
	if err != nil {
		return err
	}
	name, args, err := command.ParseArgv(argv)
	if err != nil {
		return err
	}
	method, err := command.Method(name)
	if err != nil {
		return err
	}
	callTimeout := ctx.Globals.CallTimeout()
	if method == "wait.wait" {
		callTimeout, err = waitDeadline(args, callTimeout)
		if err != nil {
			return err
		}
	}
	client, err := ctx.Connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	callCtx := ctx.Context
	if callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, callTimeout)
		defer cancel()
	}
	ambient := runenv.Ambient{}
	if ctx.Deps.Ambient != nil {
		ambient = ctx.Deps.Ambient()
	}
	start := time.Now()
	res, err := client.Call(callCtx, method, args, ambient)
	if err != nil {
		return err
	}
	return writeResult(ctx, method, res, start)
}

// commandArgv puts the verb in front of the raw argv. The verb command
// already carries it as its first argument.
func commandArgv(ctx root.CommandContext) []string {
	if method := strings.TrimSpace(ctx.Spec.Method); method != "" {
		return append([]string{method}, ctx.Args...)
	}
	return append([]string(nil), ctx.Args...)
}

// withClipboard replaces set-buffer's --clipboard flag with the system
// clipboard contents.
func withClipboard(ctx root.CommandContext, argv []string) ([]string, error) {
	method, err := command.Method(argv[0])
	if err != nil || method != "buffer.set" {
		return argv, nil
	}
	out := make([]string, 0, len(argv))
	useClipboard := false
	for i, tok := range argv {
		if tok == "--" {
			out = append(out, argv[i:]...)
			break
		}
		if tok == "--clipboard" || tok == "--clipboard=true" {
			useClipboard = true
			continue
		}
		if tok == "--clipboard=false" {
			continue
		}
		out = append(out, tok)
	}
	if !useClipboard {
		return out, nil
	}
	if ctx.Deps.ReadClipboard == nil {
		return nil, fmt.Errorf("clipboard is not available")
	}
	text, err := ctx.Deps.ReadClipboard()
	if err != nil {
		return nil, fmt.Errorf("read clipboard: %w", err)
	}
	return append(out, "--data", text), nil
}

// waitDeadline gives wait-for its own timeout plus the usual round trip.
// A zero timeout waits until signaled.
func waitDeadline(args command.Args, callTimeout time.Duration) (time.Duration, error) {
	if signal, err := args.Bool("signal"); err != nil || signal {
		return callTimeout, err
	}
	var wait time.Duration
	ms, msSet, err := args.Int("timeout_ms")
	if err != nil {
		return 0, err
	}
	secs, secsSet, err := args.Float("timeout")
	if err != nil {
		return 0, err
	}
	switch {
	case msSet:
		wait = time.Duration(ms) * time.Millisecond
	case secsSet:
		wait = time.Duration(secs * float64(time.Second))
	default:
		args["timeout"] = defaultWaitSeconds
		wait = time.Duration(defaultWaitSeconds * float64(time.Second))
	}
	if wait <= 0 {
		return 0, nil
	}
	return wait + callTimeout, nil
}

func writeResult(ctx root.CommandContext, method string, res command.Result, start time.Time) error {
	warnings := command.Warnings(res)
	filtered, _ := output.FilterIDs(map[string]any(res), ctx.Globals.IDFormat).(map[string]any)
	delete(filtered, "warnings")
	if ctx.JSON {
		id := ctx.Spec.ID
		if ctx.Spec.Method == "" {
			id = method
		}
		meta := output.NewMeta(id, ctx.Deps.Version).Since(start)
		if method != id {
			meta.Method = method
		}
		return output.WriteSuccess(ctx.Out, meta, filtered, warnings...)
	}
	for _, warning := range warnings {
		if ctx.ErrOut != nil {
			_, _ = fmt.Fprintf(ctx.ErrOut, "warning: %s\n", warning)
		}
	}
	if keys, ok := createdKeys[method]; ok {
		return output.RenderCreated(ctx.Out, filtered, keys[0], keys[1])
	}
	return output.Render(ctx.Out, filtered)
}
