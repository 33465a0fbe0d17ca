package root

import (
	"fmt"

	"github.com/pweiskircher/cmux/internal/cli/output"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/sessiond"
)

const codeDaemonUnavailable = "daemon_unavailable"

// unboundCommandError reports a spec command that no package registered.
type unboundCommandError string

func (e unboundCommandError) Error() string {
	return fmt.Sprintf("command %s has no registered handler", string(e))
}

// ErrorCode maps a handler error to the code used in JSON error envelopes.
func ErrorCode(err error) string {
	if sessiond.IsConnectionError(err) {
		return codeDaemonUnavailable
	}
	return string(muxerr.CodeOf(err))
}

// failureFor builds the envelope error for err. app names the binary in
// hints.
func failureFor(app string, err error) output.Failure {
	f := output.Failure{Code: ErrorCode(err), Message: err.Error()}
	switch f.Code {
	case codeDaemonUnavailable:
		f.Hint = fmt.Sprintf("start it with: %s daemon start", app)
	case string(muxerr.CodeNotSupported):
		f.Hint = fmt.Sprintf("run %s --help for the supported commands", app)
	}
	return f
}
