package identity

import (
	"path/filepath"
	"strings"
)

const (
	BrandName = "cmux"
	// AppSlug names on-disk state (config/runtime dirs) and log attributes.
	AppSlug = "cmux"
	CLIName = "cmux"

	GlobalConfigFile = "config.yml"

	SocketFile = "cmux.sock"
	PidFile    = "cmux.pid"
	LogFile    = "cmuxd.log"

	// EnvPrefix is shared by every environment variable the binary reads.
	EnvPrefix = "CMUX_"
)

var (
	InputAliases = []string{"cmuxctl"}
)

// ResolveBinaryName returns the CLI name to report in help and errors.
func ResolveBinaryName(args []string) string {
	if len(args) == 0 {
		return CLIName
	}
	base := strings.ToLower(strings.TrimSpace(filepath.Base(args[0])))
	if IsCLICommandToken(base) {
		return base
	}
	return CLIName
}

func IsCLICommandToken(token string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(token))
	if trimmed == "" {
		return false
	}
	if trimmed == CLIName {
		return true
	}
	for _, alias := range InputAliases {
		if trimmed == alias {
			return true
		}
	}
	return false
}
