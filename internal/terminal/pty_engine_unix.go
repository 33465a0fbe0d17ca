//go:build unix

package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/kballard/go-shellquote"

	"github.com/pweiskircher/cmux/internal/limits"
	"github.com/pweiskircher/cmux/internal/logging"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

const stopGrace = 2 * time.Second

// PTYEngine runs one process per surface behind a pseudo terminal.
type PTYEngine struct {
	mu         sync.Mutex
	surfaces   map[string]*ptySurface
	shell      string
	scrollback int
}

type ptySurface struct {
	id         string
	transcript *Transcript
	cmd        *exec.Cmd
	pty        *os.File
	writeMu    sync.Mutex
	done       chan struct{}
	exitErr    error
}

// NewPTYEngine uses shell for interactive surfaces; empty picks $SHELL.
func NewPTYEngine(shell string, scrollback int) *PTYEngine {
	if strings.TrimSpace(shell) == "" {
		shell = detectShell()
	}
	return &PTYEngine{surfaces: make(map[string]*ptySurface), shell: shell, scrollback: scrollback}
}

func (e *PTYEngine) Name() string { return "pty" }

func (e *PTYEngine) Start(ctx context.Context, surfaceID string, opts StartOptions) error {
	e.mu.Lock()
	if _, exists := e.surfaces[surfaceID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("terminal: surface %s already started", surfaceID)
	}
	e.mu.Unlock()

	cols, rows := limits.Normalize(opts.Cols, opts.Rows)
	surface, err := e.spawn(surfaceID, opts, NewTranscript(rows, e.scrollback), cols, rows)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.surfaces[surfaceID] = surface
	e.mu.Unlock()
	return nil
}

func (e *PTYEngine) command(opts StartOptions) (*exec.Cmd, error) {
	line := strings.TrimSpace(opts.Command)
	if line == "" {
		// #nosec G204 - the shell is configured by the user.
		return exec.Command(e.shell), nil
	}
	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, muxerr.InvalidArgument("invalid command %q: %v", line, err)
	}
	if len(argv) == 0 {
		return exec.Command(e.shell), nil
	}
	// #nosec G204 - running user commands is the point of a terminal.
	return exec.Command(argv[0], argv[1:]...), nil
}

func (e *PTYEngine) spawn(surfaceID string, opts StartOptions, transcript *Transcript, cols, rows int) (*ptySurface, error) {
	cmd, err := e.command(opts)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Dir) != "" {
		cmd.Dir = opts.Dir
	}
	cmd.Env = surfaceEnv(opts.Env)
	f, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		return nil, fmt.Errorf("terminal: start process: %w", err)
	}
	surface := &ptySurface{
		id:         surfaceID,
		transcript: transcript,
		cmd:        cmd,
		pty:        f,
		done:       make(chan struct{}),
	}
	go surface.pump()
	slog.Debug("terminal: surface started",
		slog.String("surface_id", surfaceID),
		slog.Int("pid", cmd.Process.Pid),
		slog.String("command", logging.SanitizeCommand(opts.Command)))
	return surface, nil
}

// pump copies PTY output into the transcript until the process goes away.
func (s *ptySurface) pump() {
	_, err := io.Copy(s.transcript, s.pty)
	waitErr := s.cmd.Wait()
	if waitErr != nil {
		s.exitErr = waitErr
	} else if err != nil && !errors.Is(err, os.ErrClosed) && !errors.Is(err, syscall.EIO) {
		s.exitErr = err
	}
	close(s.done)
}

func (s *ptySurface) exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *ptySurface) stop() {
	if s.cmd.Process != nil && !s.exited() {
		_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGHUP)
	}
	_ = s.pty.Close()
	select {
	case <-s.done:
	case <-time.After(stopGrace):
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-s.done
	}
}

func (e *PTYEngine) Stop(surfaceID string) error {
	e.mu.Lock()
	surface, ok := e.surfaces[surfaceID]
	delete(e.surfaces, surfaceID)
	e.mu.Unlock()
	if !ok {
		return unknownSurface(surfaceID)
	}
	surface.stop()
	return nil
}

// Respawn stops the current process and starts opts.Command in its place,
// keeping the transcript.
func (e *PTYEngine) Respawn(_ context.Context, surfaceID string, opts StartOptions) error {
	old, err := e.surface(surfaceID)
	if err != nil {
		return err
	}
	old.stop()
	cols, rows := limits.Normalize(opts.Cols, opts.Rows)
	next, err := e.spawn(surfaceID, opts, old.transcript, cols, rows)
	if err != nil {
		e.mu.Lock()
		delete(e.surfaces, surfaceID)
		e.mu.Unlock()
		return err
	}
	e.mu.Lock()
	e.surfaces[surfaceID] = next
	e.mu.Unlock()
	return nil
}

func (e *PTYEngine) SendText(surfaceID, text string) error {
	surface, err := e.surface(surfaceID)
	if err != nil {
		return err
	}
	if surface.exited() {
		return &SurfaceClosedError{Reason: SurfaceClosedProcessExited, Cause: surface.exitErr}
	}
	surface.writeMu.Lock()
	defer surface.writeMu.Unlock()
	if _, err := io.WriteString(surface.pty, text); err != nil {
		return &SurfaceClosedError{Reason: SurfaceClosedPTYClosed, Cause: err}
	}
	return nil
}

func (e *PTYEngine) ReadText(surfaceID string, opts ReadOptions) (string, error) {
	surface, err := e.surface(surfaceID)
	if err != nil {
		return "", err
	}
	return surface.transcript.Read(opts), nil
}

func (e *PTYEngine) ClearHistory(surfaceID string) error {
	surface, err := e.surface(surfaceID)
	if err != nil {
		return err
	}
	surface.transcript.ClearHistory()
	return nil
}

func (e *PTYEngine) Close() error {
	e.mu.Lock()
	surfaces := e.surfaces
	e.surfaces = make(map[string]*ptySurface)
	e.mu.Unlock()
	var wg sync.WaitGroup
	for _, surface := range surfaces {
		wg.Add(1)
		go func(s *ptySurface) {
			defer wg.Done()
			s.stop()
		}(surface)
	}
	wg.Wait()
	return nil
}

func (e *PTYEngine) surface(id string) (*ptySurface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	surface, ok := e.surfaces[id]
	if !ok {
		return nil, unknownSurface(id)
	}
	return surface, nil
}
