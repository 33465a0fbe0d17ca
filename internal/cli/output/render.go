package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Render writes a command result for humans. Lists become tables, text
// payloads are printed verbatim and anything else is printed as sorted
// "key: value" lines. Warnings are left to the caller.
func Render(w io.Writer, res map[string]any) error {
	switch {
	case has(res, "text"):
		return writeText(w, str(res["text"]))
	case has(res, "message"):
		return writeText(w, str(res["message"]))
	case has(res, "output"):
		return writeText(w, str(res["output"]))
	case has(res, "data") && has(res, "name"):
		return writeText(w, str(res["data"]))
	case has(res, "workspaces"):
		return workspaceTable(rows(res["workspaces"])).Write(w)
	case has(res, "panes"):
		return paneTable(rows(res["panes"])).Write(w)
	case has(res, "surfaces"):
		return surfaceTable(rows(res["surfaces"])).Write(w)
	case has(res, "matches"):
		return emptyOr(w, rows(res["matches"]), "no matches", matchTable)
	case has(res, "hooks"):
		return emptyOr(w, rows(res["hooks"]), "no hooks", hookTable)
	case has(res, "buffers"):
		return emptyOr(w, rows(res["buffers"]), "no buffers", bufferTable)
	case has(res, "methods"):
		return writeCapabilities(w, res)
	case has(res, "pong"):
		_, err := fmt.Fprintln(w, "pong")
		return err
	default:
		return writeFields(w, res)
	}
}

// RenderCreated prints the one-line "OK <ref>" reply of commands that
// create an entity. With --id-format both, the ref and the id share the
// line. It falls back to Render when the result names nothing.
func RenderCreated(w io.Writer, res map[string]any, refKey, idKey string) error {
	name := ident(res, refKey, idKey)
	if name == "" {
		return Render(w, res)
	}
	_, err := fmt.Fprintf(w, "OK %s\n", name)
	return err
}

func has(res map[string]any, key string) bool {
	_, ok := res[key]
	return ok
}

func writeText(w io.Writer, text string) error {
	if text == "" {
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}

func rows(v any) []map[string]any {
	switch typed := v.(type) {
	case []map[string]any:
		return typed
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if row, ok := item.(map[string]any); ok {
				out = append(out, row)
			}
		}
		return out
	default:
		return nil
	}
}

func emptyOr(w io.Writer, list []map[string]any, empty string, table func([]map[string]any) Table) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, empty)
		return err
	}
	return table(list).Write(w)
}

func workspaceTable(list []map[string]any) Table {
	t := Table{Header: []string{"", "WORKSPACE", "TITLE", "PANES", "TABS"}}
	for _, row := range list {
		t.Rows = append(t.Rows, []string{
			marker(row, "selected"),
			ident(row, "ref", "id"),
			str(row["title"]),
			str(row["panes"]),
			str(row["surfaces"]),
		})
	}
	return t
}

func paneTable(list []map[string]any) Table {
	t := Table{Header: []string{"", "PANE", "TABS", "ZOOMED", "FRAME"}}
	for _, row := range list {
		zoomed := ""
		if truthy(row["zoomed"]) {
			zoomed = "yes"
		}
		t.Rows = append(t.Rows, []string{
			marker(row, "focused"),
			ident(row, "ref", "id"),
			str(row["surface_count"]),
			zoomed,
			frameString(row["frame"]),
		})
	}
	return t
}

func surfaceTable(list []map[string]any) Table {
	t := Table{Header: []string{"", "TAB", "TITLE", "PANE", "FLAGS"}}
	for _, row := range list {
		var flags []string
		if truthy(row["pinned"]) {
			flags = append(flags, "pinned")
		}
		if truthy(row["unread"]) {
			flags = append(flags, "unread")
		}
		t.Rows = append(t.Rows, []string{
			marker(row, "focused"),
			ident(row, "tab_ref", "id"),
			str(row["title"]),
			ident(row, "pane_ref", "pane_id"),
			strings.Join(flags, ","),
		})
	}
	return t
}

func matchTable(list []map[string]any) Table {
	t := Table{Header: []string{"KIND", "WORKSPACE", "TAB", "TITLE"}}
	for _, row := range list {
		t.Rows = append(t.Rows, []string{
			str(row["kind"]),
			ident(row, "workspace_ref", "workspace_id"),
			ident(row, "tab_ref", "surface_id"),
			str(row["title"]),
		})
	}
	return t
}

func hookTable(list []map[string]any) Table {
	t := Table{Header: []string{"EVENT", "COMMAND", ""}}
	for _, row := range list {
		origin := ""
		if truthy(row["preset"]) {
			origin = "(config)"
		}
		t.Rows = append(t.Rows, []string{str(row["event"]), str(row["command"]), origin})
	}
	return t
}

func bufferTable(list []map[string]any) Table {
	t := Table{Header: []string{"NAME", "SIZE"}}
	for _, row := range list {
		t.Rows = append(t.Rows, []string{str(row["name"]), str(row["size"])})
	}
	return t
}

func writeCapabilities(w io.Writer, res map[string]any) error {
	var b strings.Builder
	for _, key := range []string{"methods", "verbs", "not_supported", "events"} {
		list := strs(res[key])
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", strings.ReplaceAll(key, "_", " "))
		for _, item := range list {
			fmt.Fprintf(&b, "  %s\n", item)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeFields(w io.Writer, res map[string]any) error {
	lines := map[string]string{}
	flatten("", res, lines)
	keys := make([]string, 0, len(lines))
	for key := range lines {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %s\n", key, lines[key])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func flatten(prefix string, v any, out map[string]string) {
	switch typed := v.(type) {
	case map[string]any:
		for key, val := range typed {
			if prefix == "" && key == "warnings" {
				continue
			}
			name := key
			if prefix != "" {
				name = prefix + "." + key
			}
			flatten(name, val, out)
		}
	case []any:
		if list := rows(typed); len(list) == len(typed) && len(list) > 0 {
			for i, row := range list {
				flatten(fmt.Sprintf("%s[%d]", prefix, i), row, out)
			}
			return
		}
		out[prefix] = strings.Join(strs(typed), ", ")
	case []map[string]any:
		for i, row := range typed {
			flatten(fmt.Sprintf("%s[%d]", prefix, i), row, out)
		}
	default:
		out[prefix] = str(v)
	}
}

func ident(row map[string]any, refKey, idKey string) string {
	var parts []string
	if ref := str(row[refKey]); ref != "" {
		parts = append(parts, ref)
	}
	if id := str(row[idKey]); id != "" {
		parts = append(parts, id)
	}
	return strings.Join(parts, " ")
}

func marker(row map[string]any, key string) string {
	if truthy(row[key]) {
		return "*"
	}
	return ""
}

func frameString(v any) string {
	f, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s,%s %sx%s", str(f["x"]), str(f["y"]), str(f["width"]), str(f["height"]))
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func strs(v any) []string {
	switch typed := v.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, str(item))
		}
		return out
	default:
		return nil
	}
}

func str(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	default:
		return fmt.Sprint(typed)
	}
}
