package terminal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pweiskircher/cmux/internal/muxerr"
)

func TestTranscriptScreenAndScrollback(t *testing.T) {
	tr := NewTranscript(2, 100)
	_, _ = tr.Write([]byte("one\r\ntwo\nthree\nfour"))
	if got := tr.Read(ReadOptions{}); got != "three\nfour" {
		t.Fatalf("screen = %q", got)
	}
	if got := tr.Read(ReadOptions{Scrollback: true}); got != "one\ntwo\nthree\nfour" {
		t.Fatalf("scrollback = %q", got)
	}
	if got := tr.Read(ReadOptions{Scrollback: true, Lines: 3}); got != "two\nthree\nfour" {
		t.Fatalf("last lines = %q", got)
	}
	tr.ClearHistory()
	if got := tr.Read(ReadOptions{Scrollback: true}); got != "three\nfour" {
		t.Fatalf("after clear = %q", got)
	}
}

func TestTranscriptStripsEscapes(t *testing.T) {
	tr := NewTranscript(5, 100)
	_, _ = tr.Write([]byte("\x1b[31mred\x1b[0m\n"))
	if got := tr.Read(ReadOptions{}); got != "red" {
		t.Fatalf("Read() = %q", got)
	}
}

func TestTranscriptCapsScrollback(t *testing.T) {
	tr := NewTranscript(1, 3)
	_, _ = tr.Write([]byte("a\nb\nc\nd\ne\n"))
	if tr.Len() != 3 {
		t.Fatalf("Len() = %d", tr.Len())
	}
	if got := tr.Read(ReadOptions{Scrollback: true}); got != "c\nd\ne" {
		t.Fatalf("Read() = %q", got)
	}
}

func TestReadOptionsValidate(t *testing.T) {
	err := ReadOptions{Lines: 0}.Validate(true)
	if !errors.Is(err, muxerr.ErrInvalidArgument) || !strings.Contains(err.Error(), "--lines must be greater than 0") {
		t.Fatalf("Validate() = %v", err)
	}
	if err := (ReadOptions{}).Validate(false); err != nil {
		t.Fatalf("unset lines should pass, got %v", err)
	}
}

func TestMemoryEngine(t *testing.T) {
	e := NewMemoryEngine(0)
	ctx := context.Background()
	if err := e.Start(ctx, "s1", StartOptions{}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := e.SendText("s1", "echo TOKEN\n"); err != nil {
		t.Fatalf("SendText() error: %v", err)
	}
	text, err := e.ReadText("s1", ReadOptions{Scrollback: true})
	if err != nil || !strings.Contains(text, "TOKEN") {
		t.Fatalf("ReadText() = %q, %v", text, err)
	}
	if err := e.Respawn(ctx, "s1", StartOptions{Command: "echo AGAIN"}); err != nil {
		t.Fatalf("Respawn() error: %v", err)
	}
	text, _ = e.ReadText("s1", ReadOptions{Scrollback: true})
	if !strings.Contains(text, "AGAIN") || e.Command("s1") != "echo AGAIN" {
		t.Fatalf("respawn not recorded: %q", text)
	}
	if err := e.Stop("s1"); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := e.SendText("s1", "x"); !errors.Is(err, muxerr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
