// Package termkeys encodes tmux-style key names into the bytes a terminal
// sends for them.
package termkeys

import (
	"fmt"
	"strings"
)

var named = map[string]string{
	"enter":    "\r",
	"tab":      "\t",
	"btab":     "\x1b[Z",
	"space":    " ",
	"bspace":   "\x7f",
	"escape":   "\x1b",
	"up":       "\x1b[A",
	"down":     "\x1b[B",
	"right":    "\x1b[C",
	"left":     "\x1b[D",
	"home":     "\x1b[H",
	"end":      "\x1b[F",
	"ppage":    "\x1b[5~",
	"pageup":   "\x1b[5~",
	"npage":    "\x1b[6~",
	"pagedown": "\x1b[6~",
	"ic":       "\x1b[2~",
	"insert":   "\x1b[2~",
	"dc":       "\x1b[3~",
	"delete":   "\x1b[3~",
	"f1":       "\x1bOP",
	"f2":       "\x1bOQ",
	"f3":       "\x1bOR",
	"f4":       "\x1bOS",
	"f5":       "\x1b[15~",
	"f6":       "\x1b[17~",
	"f7":       "\x1b[18~",
	"f8":       "\x1b[19~",
	"f9":       "\x1b[20~",
	"f10":      "\x1b[21~",
	"f11":      "\x1b[23~",
	"f12":      "\x1b[24~",
}

// Encode returns the byte sequence for one key. Names are tmux's
// (Enter, C-c, M-x, BSpace, F5); "ctrl+c" style combos are accepted too.
func Encode(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	ctrl, meta, base := splitModifiers(key)
	out, err := encodeBase(base, ctrl)
	if err != nil {
		return "", fmt.Errorf("unknown key %q", key)
	}
	if meta {
		out = "\x1b" + out
	}
	return out, nil
}

// EncodeList encodes a comma separated key list, e.g. "C-c,Up,Enter".
// A literal comma is written as "Comma".
func EncodeList(keys string) (string, error) {
	var b strings.Builder
	for _, key := range strings.Split(keys, ",") {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "comma") {
			b.WriteByte(',')
			continue
		}
		seq, err := Encode(key)
		if err != nil {
			return "", err
		}
		b.WriteString(seq)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no keys in %q", keys)
	}
	return b.String(), nil
}

func splitModifiers(key string) (ctrl, meta bool, base string) {
	if strings.Contains(key, "+") && len(key) > 1 {
		parts := strings.Split(key, "+")
		for _, raw := range parts[:len(parts)-1] {
			switch normalizeModifier(strings.ToLower(raw)) {
			case "ctrl":
				ctrl = true
			case "alt":
				meta = true
			}
		}
		return ctrl, meta, parts[len(parts)-1]
	}
	for len(key) > 2 && key[1] == '-' {
		switch key[0] {
		case 'C', 'c':
			ctrl = true
		case 'M', 'm':
			meta = true
		default:
			return ctrl, meta, key
		}
		key = key[2:]
	}
	return ctrl, meta, key
}

func normalizeModifier(value string) string {
	switch value {
	case "ctrl", "control":
		return "ctrl"
	case "alt", "option", "meta":
		return "alt"
	default:
		return ""
	}
}

func encodeBase(base string, ctrl bool) (string, error) {
	if seq, ok := named[strings.ToLower(base)]; ok {
		if ctrl && strings.EqualFold(base, "space") {
			return "\x00", nil
		}
		if ctrl {
			return "", fmt.Errorf("no control form")
		}
		return seq, nil
	}
	if len(base) != 1 {
		return "", fmt.Errorf("not a key")
	}
	c := base[0]
	if !ctrl {
		return base, nil
	}
	switch {
	case c >= 'a' && c <= 'z':
		return string(rune(c - 'a' + 1)), nil
	case c >= 'A' && c <= 'Z':
		return string(rune(c - 'A' + 1)), nil
	case c >= '@' && c <= '_':
		return string(rune(c - '@')), nil
	case c == '?':
		return "\x7f", nil
	}
	return "", fmt.Errorf("no control form")
}
