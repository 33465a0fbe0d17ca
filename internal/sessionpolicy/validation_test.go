package sessionpolicy

import (
	"errors"
	"strings"
	"testing"

	"github.com/pweiskircher/cmux/internal/limits"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

func TestTitle(t *testing.T) {
	got, err := Title("rename-tab", "  logs ")
	if err != nil || got != "logs" {
		t.Fatalf("Title() = %q, %v", got, err)
	}
	tests := []struct {
		title string
		want  string
	}{
		{"   ", "rename-tab requires a title"},
		{"a\x1b[31mb", "rename-tab: title contains control characters"},
		{strings.Repeat("x", limits.TitleMaxRunes+1), "rename-tab: title is longer than 256 characters"},
	}
	for _, tt := range tests {
		_, err := Title("rename-tab", tt.title)
		if !errors.Is(err, muxerr.ErrInvalidArgument) || err.Error() != tt.want {
			t.Fatalf("Title(%q) error = %v, want %q", tt.title, err, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	if got, err := Name("buffer", " clip "); err != nil || got != "clip" {
		t.Fatalf("Name() = %q, %v", got, err)
	}
	if got, err := Name("buffer", ""); err != nil || got != "" {
		t.Fatalf("empty Name() = %q, %v", got, err)
	}
	for _, bad := range []string{"a\nb", strings.Repeat("n", limits.NameMaxRunes+1)} {
		if _, err := Name("channel", bad); !errors.Is(err, muxerr.ErrInvalidArgument) {
			t.Fatalf("Name(%q) error = %v", bad, err)
		}
	}
}
