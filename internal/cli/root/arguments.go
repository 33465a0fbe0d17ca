package root

import (
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/pweiskircher/cmux/internal/cli/spec"
)

// buildArguments declares the positional arguments of a parsed command.
// Only the last argument may be variadic.
func buildArguments(args []spec.Arg) []cli.Argument {
	var out []cli.Argument
	for _, a := range args {
		name := strings.TrimSpace(a.Name)
		if !a.Variadic {
			out = append(out, &cli.StringArg{Name: name})
			continue
		}
		atLeast := 0
		if a.Required {
			atLeast = 1
		}
		out = append(out, &cli.StringArgs{Name: name, Min: atLeast, Max: -1})
	}
	return out
}

// checkArguments enforces required and enum positionals after urfave has
// parsed them.
func checkArguments(cmdSpec spec.Command, cmd *cli.Command) error {
	for _, a := range cmdSpec.Args {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		values := argValues(a, cmd)
		if len(values) == 0 {
			if a.Required {
				return fmt.Errorf("%s requires <%s>", cmdSpec.Name, name)
			}
			continue
		}
		if len(a.Enum) == 0 {
			continue
		}
		for _, v := range values {
			if !slices.Contains(a.Enum, v) {
				return fmt.Errorf("%s: <%s> must be one of %s, got %q", cmdSpec.Name, name, strings.Join(a.Enum, "|"), v)
			}
		}
	}
	return nil
}

func argValues(a spec.Arg, cmd *cli.Command) []string {
	var raw []string
	if a.Variadic {
		raw = cmd.StringArgs(a.Name)
	} else {
		raw = []string{cmd.StringArg(a.Name)}
	}
	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
