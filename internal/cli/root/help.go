package root

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/pweiskircher/cmux/internal/cli/output"
	"github.com/pweiskircher/cmux/internal/cli/spec"
)

// WriteCommandHelp renders help for one command from its spec entry.
// usage is the command path after the app name, e.g. "daemon stop".
func WriteCommandHelp(w io.Writer, appName, usage string, cmdSpec spec.Command, globalFlags []spec.Flag) error {
	var b bytes.Buffer
	line := strings.TrimSpace(appName + " " + usage)
	if len(cmdSpec.Subcommands) > 0 {
		line += " [command]"
	}
	if hasVisibleFlags(cmdSpec.Flags) {
		line += " [flags]"
	}
	if args := argsUsage(cmdSpec.Args); args != "" {
		line += " " + args
	}
	fmt.Fprintf(&b, "Usage: %s\n", line)
	if cmdSpec.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", cmdSpec.Summary)
	}
	if cmdSpec.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(cmdSpec.Description))
	}
	if len(cmdSpec.Aliases) > 0 {
		fmt.Fprintf(&b, "\nAliases: %s\n", strings.Join(cmdSpec.Aliases, ", "))
	}
	switch {
	case cmdSpec.Stream:
		b.WriteString("\nWith --json, prints one envelope per line until interrupted.\n")
	case !cmdSpec.JSON:
		b.WriteString("\nDoes not support --json.\n")
	}
	if len(cmdSpec.Subcommands) > 0 {
		table := output.Table{MaxCellWidth: -1}
		for _, sub := range cmdSpec.Subcommands {
			if sub.Hidden {
				continue
			}
			table.Rows = append(table.Rows, []string{sub.Name, sub.Summary})
		}
		writeSection(&b, "Commands", table)
	}
	if len(cmdSpec.Args) > 0 {
		table := output.Table{MaxCellWidth: -1}
		for _, arg := range cmdSpec.Args {
			desc := arg.Description
			if len(arg.Enum) > 0 {
				desc = strings.TrimSpace(desc + " (" + strings.Join(arg.Enum, "|") + ")")
			}
			table.Rows = append(table.Rows, []string{strings.ToUpper(arg.Name), desc})
		}
		writeSection(&b, "Arguments", table)
	}
	if hasVisibleFlags(cmdSpec.Flags) {
		writeSection(&b, "Flags", flagTable(cmdSpec.Flags))
	}
	if hasVisibleFlags(globalFlags) {
		writeSection(&b, "Global flags", flagTable(globalFlags))
	}
	if len(cmdSpec.Examples) > 0 {
		b.WriteString("\nExamples:\n")
		for _, example := range cmdSpec.Examples {
			fmt.Fprintf(&b, "  %s\n", example)
		}
	}
	_, err := w.Write(b.Bytes())
	return err
}

func writeSection(b *bytes.Buffer, title string, table output.Table) {
	if len(table.Rows) == 0 {
		return
	}
	var body bytes.Buffer
	_ = table.Write(&body)
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, line := range strings.Split(strings.TrimRight(body.String(), "\n"), "\n") {
		fmt.Fprintf(b, "  %s\n", line)
	}
}

func hasVisibleFlags(flags []spec.Flag) bool {
	for _, flag := range flags {
		if !flag.Hidden {
			return true
		}
	}
	return false
}

func flagTable(flags []spec.Flag) output.Table {
	table := output.Table{MaxCellWidth: -1}
	for _, flag := range flags {
		if flag.Hidden {
			continue
		}
		table.Rows = append(table.Rows, []string{flagSyntax(flag), flagDescription(flag)})
	}
	return table
}

func flagSyntax(flag spec.Flag) string {
	names := append([]string{}, flag.Short...)
	if !flag.ShortOnly {
		names = append(names, "--"+flag.Name)
		for _, alias := range flag.Aliases {
			if len(alias) == 1 {
				names = append(names, "-"+alias)
				continue
			}
			names = append(names, "--"+alias)
		}
	}
	syntax := strings.Join(names, ", ")
	if value := flagPlaceholder(flag); value != "" {
		syntax += " " + value
	}
	return syntax
}

func flagPlaceholder(flag spec.Flag) string {
	if flag.Placeholder != "" {
		return flag.Placeholder
	}
	switch flag.Type {
	case "bool":
		return ""
	case "enum":
		return strings.Join(flag.Enum, "|")
	case "int":
		return "N"
	case "float":
		return "NUM"
	case "duration":
		return "DURATION"
	case "path":
		return "PATH"
	default:
		return strings.ToUpper(strings.ReplaceAll(flag.Name, "-", "_"))
	}
}

func flagDescription(flag spec.Flag) string {
	desc := flag.Description
	if flag.Default != nil && flag.Type != "bool" {
		desc += fmt.Sprintf(" (default %v)", flag.Default)
	}
	if flag.Env != "" {
		desc += fmt.Sprintf(" [$%s]", flag.Env)
	}
	if flag.Repeatable {
		desc += " (repeatable)"
	}
	return strings.TrimSpace(desc)
}

// applyHelpTemplates makes "help <command>" and "<command> --help" print
// the help rendered from commands.yaml. The rendered text is a template with no actions.
func applyHelpTemplates(app *cli.Command, specDoc *spec.Spec) {
	if app == nil || specDoc == nil {
		return
	}
	applyCommandTemplates(app.Commands, specDoc.Commands, specDoc, "")
}

func applyCommandTemplates(cmds []*cli.Command, specs []spec.Command, specDoc *spec.Spec, prefix string) {
	for _, cmd := range cmds {
		for _, cmdSpec := range specs {
			if cmdSpec.Name != cmd.Name {
				continue
			}
			usage := strings.TrimSpace(prefix + " " + cmdSpec.Name)
			var b bytes.Buffer
			_ = WriteCommandHelp(&b, specDoc.App.Name, usage, cmdSpec, specDoc.GlobalFlags)
			cmd.CustomHelpTemplate = strings.ReplaceAll(b.String(), "{{", `{{"{{"}}`)
			applyCommandTemplates(cmd.Commands, cmdSpec.Subcommands, specDoc, usage)
		}
	}
}
