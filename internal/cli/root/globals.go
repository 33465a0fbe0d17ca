package root

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pweiskircher/cmux/internal/cli/spec"
	"github.com/pweiskircher/cmux/internal/runenv"
)

// ID formats accepted by --id-format.
const (
	IDFormatRefs = "refs"
	IDFormatIDs  = "ids"
	IDFormatBoth = "both"
)

// Globals are the global flag values of one invocation.
type Globals struct {
	Socket      string
	JSON        bool
	IDFormat    string
	Timeout     time.Duration
	NoAutostart bool
}

func readGlobals(cmd *cli.Command) Globals {
	g := Globals{IDFormat: IDFormatRefs}
	if cmd == nil {
		return g
	}
	g.Socket = strings.TrimSpace(cmd.String("socket"))
	g.JSON = cmd.Bool("json")
	if format := strings.TrimSpace(cmd.String("id-format")); format != "" {
		g.IDFormat = format
	}
	g.Timeout = cmd.Duration("timeout")
	g.NoAutostart = cmd.Bool("no-autostart")
	return g
}

// stripGlobals removes global flags from a passthrough argv and applies
// them to g. Scanning stops at "--"; leading-only flags are left alone so
// a command can use the same name for its own flag.
func stripGlobals(flags []spec.Flag, args []string, g *Globals) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			out = append(out, args[i:]...)
			break
		}
		flag, ok := globalFlagFor(flags, tok)
		if !ok {
			out = append(out, tok)
			continue
		}
		_, value, hasValue := strings.Cut(tok, "=")
		if flag.Type != "bool" && !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag --%s requires a value", flag.Name)
			}
			i++
			value = args[i]
			hasValue = true
		}
		if err := applyGlobal(g, flag, value, hasValue); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func globalFlagFor(flags []spec.Flag, tok string) (spec.Flag, bool) {
	if !strings.HasPrefix(tok, "--") {
		return spec.Flag{}, false
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(tok, "--"), "=")
	for _, flag := range flags {
		if flag.LeadingOnly {
			continue
		}
		if flag.Name == name {
			return flag, true
		}
		for _, alias := range flag.Aliases {
			if alias == name {
				return flag, true
			}
		}
	}
	return spec.Flag{}, false
}

func applyGlobal(g *Globals, flag spec.Flag, value string, hasValue bool) error {
	switch flag.Name {
	case "json":
		on, err := boolValue(value, hasValue)
		if err != nil {
			return fmt.Errorf("flag --json: %w", err)
		}
		g.JSON = on
	case "no-autostart":
		on, err := boolValue(value, hasValue)
		if err != nil {
			return fmt.Errorf("flag --no-autostart: %w", err)
		}
		g.NoAutostart = on
	case "socket":
		g.Socket = strings.TrimSpace(value)
	case "id-format":
		if check := oneOf(flag.Enum); check != nil {
			if err := check(value); err != nil {
				return fmt.Errorf("flag --id-format: %w", err)
			}
		}
		g.IDFormat = value
	}
	return nil
}

func boolValue(value string, hasValue bool) (bool, error) {
	if !hasValue {
		return true, nil
	}
	return strconv.ParseBool(value)
}

// CallTimeout bounds one daemon round trip: --timeout, then $CMUX_TIMEOUT.
func (g Globals) CallTimeout() time.Duration {
	if g.Timeout > 0 {
		return g.Timeout
	}
	return runenv.CallTimeout()
}
