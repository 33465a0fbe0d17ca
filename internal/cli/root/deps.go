package root

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"

	"github.com/pweiskircher/cmux/internal/config"
	"github.com/pweiskircher/cmux/internal/identity"
	"github.com/pweiskircher/cmux/internal/runenv"
	"github.com/pweiskircher/cmux/internal/sessiond"
)

// Dependencies provides external services for CLI handlers.
type Dependencies struct {
	Version string
	AppName string
	// Config is the loaded config.yml; the zero value means defaults.
	Config config.Config
	// ConfigPath is where Config came from, empty when none was read.
	ConfigPath string

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	Connect       func(ctx context.Context, opts sessiond.ConnectOptions) (*sessiond.Client, error)
	Ambient       func() runenv.Ambient
	ReadClipboard func() (string, error)
}

// DefaultDependencies returns dependencies wired to production services.
func DefaultDependencies(version string) Dependencies {
	return Dependencies{
		Version:       version,
		AppName:       identity.CLIName,
		Config:        config.Defaults(),
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Stdin:         os.Stdin,
		Connect:       sessiond.Connect,
		Ambient:       runenv.AmbientFromEnv,
		ReadClipboard: clipboard.ReadAll,
	}
}
