// Package sessionpolicy validates the user-supplied strings the daemon
// stores: workspace and tab titles, buffer and wait channel names.
package sessionpolicy

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pweiskircher/cmux/internal/limits"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

// Title trims title and rejects empty, oversized or control-character
// titles. verb prefixes the error, e.g. "rename-tab requires a title".
func Title(verb, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", muxerr.InvalidArgument("%s requires a title", verb)
	}
	if hasControl(title) {
		return "", muxerr.InvalidArgument("%s: title contains control characters", verb)
	}
	if utf8.RuneCountInString(title) > limits.TitleMaxRunes {
		return "", muxerr.InvalidArgument("%s: title is longer than %d characters", verb, limits.TitleMaxRunes)
	}
	return title, nil
}

// Name trims a buffer or channel name. An empty name is returned as is so
// callers can apply their own default or message.
func Name(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	if hasControl(name) || utf8.RuneCountInString(name) > limits.NameMaxRunes {
		return "", muxerr.InvalidArgument("invalid %s name %q", kind, name)
	}
	return name, nil
}

func hasControl(s string) bool {
	for _, r := range s {
		if r == 0 || unicode.IsControl(r) {
			return true
		}
	}
	return false
}
