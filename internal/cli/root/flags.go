package root

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pweiskircher/cmux/internal/cli/spec"
)

// buildFlags turns the declared flags of a parsed (non-passthrough) command
// into urfave flags.
func buildFlags(flags []spec.Flag) ([]cli.Flag, error) {
	var out []cli.Flag
	for _, f := range flags {
		built, err := buildFlag(f)
		if err != nil {
			return nil, err
		}
		out = append(out, built)
	}
	return out, nil
}

func buildFlag(f spec.Flag) (cli.Flag, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, fmt.Errorf("flag without a name (%s)", f.Description)
	}
	aliases := flagAliases(f)
	var env cli.ValueSourceChain
	if v := strings.TrimSpace(f.Env); v != "" {
		env = cli.EnvVars(v)
	}
	usage, req, hidden := f.Description, f.Required, f.Hidden

	switch strings.TrimSpace(f.Type) {
	case "bool":
		v, _ := f.Default.(bool)
		return &cli.BoolFlag{Name: name, Aliases: aliases, Usage: usage, Required: req, Hidden: hidden, Sources: env, Value: v}, nil
	case "string", "path":
		v, _ := f.Default.(string)
		return &cli.StringFlag{Name: name, Aliases: aliases, Usage: usage, Required: req, Hidden: hidden, Sources: env, Value: v, Validator: oneOf(f.Enum)}, nil
	case "enum":
		if len(f.Enum) == 0 {
			return nil, fmt.Errorf("enum flag --%s lists no values", name)
		}
		v, _ := f.Default.(string)
		return &cli.StringFlag{Name: name, Aliases: aliases, Usage: usage, Required: req, Hidden: hidden, Sources: env, Value: v, Validator: oneOf(f.Enum)}, nil
	case "int":
		return &cli.IntFlag{Name: name, Aliases: aliases, Usage: usage, Required: req, Hidden: hidden, Sources: env, Value: numberDefault[int](f.Default)}, nil
	case "float":
		return &cli.FloatFlag{Name: name, Aliases: aliases, Usage: usage, Required: req, Hidden: hidden, Sources: env, Value: numberDefault[float64](f.Default)}, nil
	case "duration":
		return &cli.DurationFlag{Name: name, Aliases: aliases, Usage: usage, Required: req, Hidden: hidden, Sources: env, Value: durationDefault(f.Default)}, nil
	case "string_list":
		fl := &cli.StringSliceFlag{Name: name, Aliases: aliases, Usage: usage, Required: req, Hidden: hidden, Sources: env, Value: listDefault(f.Default)}
		if check := oneOf(f.Enum); check != nil {
			fl.Validator = func(values []string) error {
				for _, v := range values {
					if err := check(v); err != nil {
						return err
					}
				}
				return nil
			}
		}
		return fl, nil
	}
	return nil, fmt.Errorf("flag --%s: unknown type %q", name, f.Type)
}

// flagAliases merges the long aliases with the single-letter forms. -h
// stays reserved for help.
func flagAliases(f spec.Flag) []string {
	out := slices.Clone(f.Aliases)
	for _, short := range f.Short {
		letter := strings.TrimLeft(short, "-")
		if letter == "" || letter == "h" || slices.Contains(out, letter) {
			continue
		}
		out = append(out, letter)
	}
	return out
}

// oneOf returns nil when any value is accepted.
func oneOf(allowed []string) func(string) error {
	if len(allowed) == 0 {
		return nil
	}
	return func(v string) error {
		if slices.Contains(allowed, v) {
			return nil
		}
		return fmt.Errorf("%q is not one of %s", v, strings.Join(allowed, "|"))
	}
}

// numberDefault accepts the numeric shapes yaml.v3 decodes into any.
func numberDefault[T int | float64](v any) T {
	switch n := v.(type) {
	case int:
		return T(n)
	case int64:
		return T(n)
	case float32:
		return T(n)
	case float64:
		return T(n)
	}
	return 0
}

func durationDefault(v any) time.Duration {
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
	case int:
		return time.Duration(d) * time.Second
	}
	return 0
}

func listDefault(v any) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		var out []string
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{items}
	}
	return nil
}
