package terminal

import (
	"context"
	"strings"
	"sync"

	"github.com/pweiskircher/cmux/internal/limits"
)

// MemoryEngine keeps a transcript per surface and echoes input into it
// instead of running processes.
type MemoryEngine struct {
	mu         sync.RWMutex
	surfaces   map[string]*memorySurface
	scrollback int
}

type memorySurface struct {
	transcript *Transcript
	command    string
}

func NewMemoryEngine(scrollback int) *MemoryEngine {
	return &MemoryEngine{surfaces: make(map[string]*memorySurface), scrollback: scrollback}
}

func (e *MemoryEngine) Name() string { return "memory" }

func (e *MemoryEngine) Start(_ context.Context, surfaceID string, opts StartOptions) error {
	_, rows := limits.Normalize(opts.Cols, opts.Rows)
	surface := &memorySurface{transcript: NewTranscript(rows, e.scrollback), command: opts.Command}
	if opts.Command != "" {
		_, _ = surface.transcript.Write([]byte("$ " + opts.Command + "\n"))
	}
	e.mu.Lock()
	e.surfaces[surfaceID] = surface
	e.mu.Unlock()
	return nil
}

func (e *MemoryEngine) Stop(surfaceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.surfaces[surfaceID]; !ok {
		return unknownSurface(surfaceID)
	}
	delete(e.surfaces, surfaceID)
	return nil
}

// Respawn keeps the transcript and records the new command in it.
func (e *MemoryEngine) Respawn(_ context.Context, surfaceID string, opts StartOptions) error {
	surface, err := e.surface(surfaceID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	surface.command = opts.Command
	e.mu.Unlock()
	line := strings.TrimSpace(opts.Command)
	if line == "" {
		line = "(shell)"
	}
	_, _ = surface.transcript.Write([]byte("$ " + line + "\n"))
	return nil
}

func (e *MemoryEngine) SendText(surfaceID, text string) error {
	surface, err := e.surface(surfaceID)
	if err != nil {
		return err
	}
	_, err = surface.transcript.Write([]byte(text))
	return err
}

func (e *MemoryEngine) ReadText(surfaceID string, opts ReadOptions) (string, error) {
	surface, err := e.surface(surfaceID)
	if err != nil {
		return "", err
	}
	return surface.transcript.Read(opts), nil
}

func (e *MemoryEngine) ClearHistory(surfaceID string) error {
	surface, err := e.surface(surfaceID)
	if err != nil {
		return err
	}
	surface.transcript.ClearHistory()
	return nil
}

// Command returns the command recorded for a surface.
func (e *MemoryEngine) Command(surfaceID string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if surface, ok := e.surfaces[surfaceID]; ok {
		return surface.command
	}
	return ""
}

func (e *MemoryEngine) Close() error {
	e.mu.Lock()
	e.surfaces = make(map[string]*memorySurface)
	e.mu.Unlock()
	return nil
}

func (e *MemoryEngine) surface(id string) (*memorySurface, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	surface, ok := e.surfaces[id]
	if !ok {
		return nil, unknownSurface(id)
	}
	return surface, nil
}
