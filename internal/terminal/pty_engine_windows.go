//go:build windows

package terminal

import (
	"context"
	"errors"
)

var errNoPTY = errors.New("terminal: pty engine is not supported on windows")

// PTYEngine is unavailable on Windows; use the memory engine.
type PTYEngine struct{}

func NewPTYEngine(string, int) *PTYEngine { return &PTYEngine{} }

func (e *PTYEngine) Name() string { return "pty" }

func (e *PTYEngine) Start(context.Context, string, StartOptions) error   { return errNoPTY }
func (e *PTYEngine) Stop(string) error                                   { return errNoPTY }
func (e *PTYEngine) Respawn(context.Context, string, StartOptions) error { return errNoPTY }
func (e *PTYEngine) SendText(string, string) error                       { return errNoPTY }
func (e *PTYEngine) ReadText(string, ReadOptions) (string, error)        { return "", errNoPTY }
func (e *PTYEngine) ClearHistory(string) error                           { return errNoPTY }
func (e *PTYEngine) Close() error                                        { return nil }
