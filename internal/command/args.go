package command

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/target"
)

// Args is the argument mapping of one command. Keys are snake_case; values
// are strings, bools or numbers. Numbers decoded from JSON arrive as float64.
type Args map[string]any

// Result is the structured payload of a successful command.
type Result map[string]any

// Has reports whether key is present with a non-empty value.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the value of the first present key as a string.
func (a Args) String(keys ...string) string {
	for _, key := range keys {
		v, ok := a[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch typed := v.(type) {
		case string:
			s = typed
		case json.Number:
			s = typed.String()
		case float64:
			s = strconv.FormatFloat(typed, 'f', -1, 64)
		default:
			s = fmt.Sprint(typed)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// Bool returns key as a bool. A missing key is false.
func (a Args) Bool(key string) (bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return false, nil
	}
	switch typed := v.(type) {
	case bool:
		return typed, nil
	case string:
		if strings.TrimSpace(typed) == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return false, muxerr.InvalidArgument("--%s expects true or false, got %q", flagName(key), typed)
		}
		return b, nil
	default:
		return false, muxerr.InvalidArgument("--%s expects true or false", flagName(key))
	}
}

// Int returns key as an int and whether it was set.
func (a Args) Int(key string) (int, bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch typed := v.(type) {
	case int:
		return typed, true, nil
	case int64:
		return int(typed), true, nil
	case float64:
		if typed != math.Trunc(typed) {
			return 0, true, muxerr.InvalidArgument("--%s expects an integer", flagName(key))
		}
		return int(typed), true, nil
	case json.Number:
		n, err := typed.Int64()
		if err != nil {
			return 0, true, muxerr.InvalidArgument("--%s expects an integer", flagName(key))
		}
		return int(n), true, nil
	case string:
		if strings.TrimSpace(typed) == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, true, muxerr.InvalidArgument("--%s expects an integer, got %q", flagName(key), typed)
		}
		return n, true, nil
	default:
		return 0, true, muxerr.InvalidArgument("--%s expects an integer", flagName(key))
	}
}

// Float returns key as a float64 and whether it was set.
func (a Args) Float(key string) (float64, bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch typed := v.(type) {
	case float64:
		return typed, true, nil
	case int:
		return float64(typed), true, nil
	case int64:
		return float64(typed), true, nil
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return 0, true, muxerr.InvalidArgument("--%s expects a number", flagName(key))
		}
		return f, true, nil
	case string:
		if strings.TrimSpace(typed) == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, true, muxerr.InvalidArgument("--%s expects a number, got %q", flagName(key), typed)
		}
		return f, true, nil
	default:
		return 0, true, muxerr.InvalidArgument("--%s expects a number", flagName(key))
	}
}

// Selectors extracts explicit target flags. "tab" is the same thing as
// "surface"; the *_id spellings come from method-style callers.
func (a Args) Selectors() target.Selectors {
	return target.Selectors{
		Workspace: a.String("workspace", "workspace_id"),
		Pane:      a.String("pane", "pane_id"),
		Surface:   a.String("surface", "surface_id", "tab", "tab_id"),
	}
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func argKey(flag string) string {
	return strings.ReplaceAll(strings.TrimLeft(flag, "-"), "-", "_")
}

// unescape turns the escapes people type on a command line (\n, \r, \t,
// \e, \\) into the bytes they mean.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'e':
			b.WriteByte(0x1b)
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
