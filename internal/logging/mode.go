package logging

import "strings"

// Mode selects logging defaults for the process.
type Mode uint8

const (
	ModeCLI Mode = iota + 1
	ModeDaemon
)

// valueFlags are the global flags that consume the next argument.
var valueFlags = map[string]bool{"--socket": true, "--id-format": true, "--timeout": true}

var daemonSubcommands = map[string]bool{"start": true, "stop": true, "status": true}

// ModeFromArgs reports ModeDaemon for `cmux [globals] daemon [flags]`,
// the foreground server. `daemon start|stop|status` are ordinary CLI
// commands.
func ModeFromArgs(args []string) Mode {
	if len(args) < 2 {
		return ModeCLI
	}
	rest := args[1:]
	for len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
		if valueFlags[rest[0]] && len(rest) > 1 {
			rest = rest[1:]
		}
		rest = rest[1:]
	}
	if len(rest) == 0 || rest[0] != "daemon" {
		return ModeCLI
	}
	for _, arg := range rest[1:] {
		if daemonSubcommands[arg] {
			return ModeCLI
		}
	}
	return ModeDaemon
}

func (m Mode) String() string {
	if m == ModeDaemon {
		return "daemon"
	}
	return "cli"
}
