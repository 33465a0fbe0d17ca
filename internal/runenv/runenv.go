package runenv

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RuntimeDirEnv  = "CMUX_RUNTIME_DIR"
	ConfigDirEnv   = "CMUX_CONFIG_DIR"
	SocketEnv      = "CMUX_SOCKET"
	PidEnv         = "CMUX_PID_FILE"
	CallTimeoutEnv = "CMUX_TIMEOUT"

	// Ambient target ids exported into every surface's process environment.
	WorkspaceIDEnv = "CMUX_WORKSPACE_ID"
	SurfaceIDEnv   = "CMUX_SURFACE_ID"
	TabIDEnv       = "CMUX_TAB_ID"
	PaneIDEnv      = "CMUX_PANE_ID"
)

func enabledEnv(name string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return false
	}
	switch strings.ToLower(value) {
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func ConfigDir() string {
	return strings.TrimSpace(os.Getenv(ConfigDirEnv))
}

func RuntimeDir() string {
	return strings.TrimSpace(os.Getenv(RuntimeDirEnv))
}

func SocketPath() string {
	return strings.TrimSpace(os.Getenv(SocketEnv))
}

func PidPath() string {
	return strings.TrimSpace(os.Getenv(PidEnv))
}

// Ambient holds the target ids inherited from the invoking surface.
type Ambient struct {
	WorkspaceID string
	SurfaceID   string
	TabID       string
	PaneID      string
}

// AmbientFromEnv reads ambient target ids from the process environment.
func AmbientFromEnv() Ambient {
	return Ambient{
		WorkspaceID: strings.TrimSpace(os.Getenv(WorkspaceIDEnv)),
		SurfaceID:   strings.TrimSpace(os.Getenv(SurfaceIDEnv)),
		TabID:       strings.TrimSpace(os.Getenv(TabIDEnv)),
		PaneID:      strings.TrimSpace(os.Getenv(PaneIDEnv)),
	}
}

// Empty reports whether no ambient id is set.
func (a Ambient) Empty() bool {
	return a.WorkspaceID == "" && a.SurfaceID == "" && a.TabID == "" && a.PaneID == ""
}

// Environ renders the ambient ids as KEY=value pairs for a child process.
func (a Ambient) Environ() []string {
	var out []string
	if a.WorkspaceID != "" {
		out = append(out, WorkspaceIDEnv+"="+a.WorkspaceID)
	}
	if a.SurfaceID != "" {
		out = append(out, SurfaceIDEnv+"="+a.SurfaceID)
	}
	if a.TabID != "" {
		out = append(out, TabIDEnv+"="+a.TabID)
	}
	if a.PaneID != "" {
		out = append(out, PaneIDEnv+"="+a.PaneID)
	}
	return out
}

// CallTimeout bounds a single CLI round trip to the daemon.
func CallTimeout() time.Duration {
	const fallback = 10 * time.Second
	raw := strings.TrimSpace(os.Getenv(CallTimeoutEnv))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d <= 0 {
			return fallback
		}
		return d
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// Enabled reports whether a boolean-ish environment variable is switched on.
func Enabled(name string) bool {
	return enabledEnv(name)
}
