package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/target"
)

// call is one command in flight. state is the live state for reads and a
// private clone for mutations.
type call struct {
	ctx      context.Context
	d        *Dispatcher
	entry    *entry
	name     string
	args     Args
	caller   Caller
	state    *mux.SessionState
	events   []mux.Event
	after    []func(context.Context) error
	warnings []string
}

func (c *call) resolve() (target.Resolved, error) {
	return target.Resolve(c.state, target.Request{Explicit: c.args.Selectors(), Ambient: c.caller.Ambient})
}

// text returns a required string argument, failing with "<command>
// requires a <key>".
func (c *call) text(key string, aliases ...string) (string, error) {
	v := strings.TrimSpace(c.args.String(append([]string{key}, aliases...)...))
	if v == "" {
		return "", muxerr.InvalidArgument("%s requires a %s", c.name, strings.ReplaceAll(key, "_", " "))
	}
	return v, nil
}

func (c *call) emit(name string) {
	c.events = append(c.events, mux.Event{Name: name})
}

func (c *call) warn(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *call) finish(res Result) Result {
	if res == nil {
		res = Result{}
	}
	if len(c.warnings) > 0 {
		res["warnings"] = append(Warnings(res), c.warnings...)
	}
	return res
}

// ParseCommandLine splits a shell-quoted command line and parses it.
func ParseCommandLine(line string) (string, Args, error) {
	argv, err := shellquote.Split(line)
	if err != nil {
		return "", nil, muxerr.InvalidArgument("invalid command %q: %v", line, err)
	}
	return ParseArgv(argv)
}

// ParseArgv turns "name --flag value -x positional..." into a command name
// and its arguments. Long flags map to snake_case keys.
func ParseArgv(argv []string) (string, Args, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return "", nil, muxerr.InvalidArgument("empty command")
	}
	name := strings.TrimSpace(argv[0])
	e, err := lookup(name)
	if err != nil {
		return name, nil, err
	}
	args := Args{}
	var positional []string
	rest := argv[1:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		switch {
		case tok == "--":
			positional = append(positional, rest[i+1:]...)
			i = len(rest)
		case strings.HasPrefix(tok, "--"):
			flag, value, hasValue := strings.Cut(tok[2:], "=")
			key := argKey(flag)
			switch {
			case hasValue:
				args[key] = value
			case e.isBool(key):
				args[key] = true
			case i+1 < len(rest):
				i++
				args[key] = rest[i]
			default:
				return name, nil, muxerr.InvalidArgument("--%s requires a value", flag)
			}
		case len(tok) > 1 && tok[0] == '-' && e.shorts != nil:
			spec, ok := e.shorts[tok]
			if !ok {
				positional = append(positional, tok)
				continue
			}
			if spec.value != "" {
				args[spec.key] = spec.value
				continue
			}
			if i+1 >= len(rest) {
				return name, nil, muxerr.InvalidArgument("%s requires a value", tok)
			}
			i++
			args[spec.key] = rest[i]
		default:
			positional = append(positional, tok)
		}
	}
	if err := bindPositional(e, args, positional); err != nil {
		return name, nil, err
	}
	return name, args, nil
}

// BindPositional stores positional values under the command's declared
// argument names. The last name takes the remaining values joined by spaces.
func BindPositional(name string, args Args, values []string) error {
	e, err := lookup(name)
	if err != nil {
		return err
	}
	return bindPositional(e, args, values)
}

func bindPositional(e *entry, args Args, values []string) error {
	if len(values) == 0 {
		return nil
	}
	var keys []string
	for _, key := range e.positional {
		if !args.Has(key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return muxerr.InvalidArgument("%s takes no positional arguments (got %q)", e.method, strings.Join(values, " "))
	}
	for i, key := range keys {
		if i >= len(values) {
			break
		}
		if i == len(keys)-1 {
			args[key] = strings.Join(values[i:], " ")
			break
		}
		args[key] = values[i]
	}
	return nil
}
