// Package terminal is the narrow surface-side view of the terminal engine:
// start a surface, send it text, read its rendered text and history, clear
// history. Two engines exist: an in-memory transcript used by tests and
// headless daemons, and a PTY engine running a real shell per surface.
package terminal

import (
	"context"
	"errors"

	"github.com/pweiskircher/cmux/internal/muxerr"
)

// ErrSurfaceClosed indicates the surface can no longer accept input.
var ErrSurfaceClosed = errors.New("surface closed")

// SurfaceClosedReason describes why a surface stopped accepting input.
type SurfaceClosedReason int32

const (
	SurfaceClosedUnknown SurfaceClosedReason = iota
	SurfaceClosedProcessExited
	SurfaceClosedPTYClosed
	SurfaceClosedStopped
)

// SurfaceClosedError reports a closed surface without exposing I/O details.
type SurfaceClosedError struct {
	Reason SurfaceClosedReason
	Cause  error
}

func (e *SurfaceClosedError) Error() string {
	switch e.Reason {
	case SurfaceClosedProcessExited:
		return "surface closed (process exited)"
	case SurfaceClosedPTYClosed:
		return "surface closed (pty disconnected)"
	default:
		return "surface closed"
	}
}

func (e *SurfaceClosedError) Unwrap() error { return e.Cause }

func (e *SurfaceClosedError) Is(target error) bool { return target == ErrSurfaceClosed }

// StartOptions describes the process behind a surface.
type StartOptions struct {
	// Command runs through the shell; empty starts an interactive shell.
	Command string
	Dir     string
	Env     []string
	Cols    int
	Rows    int
}

// ReadOptions selects what ReadText returns. Lines must be positive when
// set; zero means everything selected by Scrollback.
type ReadOptions struct {
	Scrollback bool
	Lines      int
}

// Validate rejects a non-positive explicit line count.
func (o ReadOptions) Validate(linesSet bool) error {
	if linesSet && o.Lines <= 0 {
		return muxerr.InvalidArgument("--lines must be greater than 0")
	}
	return nil
}

// Engine is what the dispatcher needs from a terminal implementation.
type Engine interface {
	Name() string
	Start(ctx context.Context, surfaceID string, opts StartOptions) error
	Stop(surfaceID string) error
	Respawn(ctx context.Context, surfaceID string, opts StartOptions) error
	SendText(surfaceID, text string) error
	ReadText(surfaceID string, opts ReadOptions) (string, error)
	ClearHistory(surfaceID string) error
	Close() error
}

func unknownSurface(id string) error {
	return muxerr.NotFound("surface %s has no terminal", id)
}
