package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, map[string]any{"text": "hello"}); err != nil {
		t.Fatalf("Render err=%v", err)
	}
	if buf.String() != "hello\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
	buf.Reset()
	if err := Render(&buf, map[string]any{"text": "a\nb\n"}); err != nil {
		t.Fatalf("Render err=%v", err)
	}
	if buf.String() != "a\nb\n" {
		t.Fatalf("trailing newline doubled: %q", buf.String())
	}
}

func TestRenderWorkspaces(t *testing.T) {
	res := map[string]any{
		"workspaces": []any{
			map[string]any{"index": 0.0, "ref": "workspace:1", "title": "main", "selected": true, "panes": 2.0, "surfaces": 3.0},
			map[string]any{"index": 1.0, "ref": "workspace:2", "title": "logs", "selected": false, "panes": 1.0, "surfaces": 1.0},
		},
	}
	var buf bytes.Buffer
	if err := Render(&buf, res); err != nil {
		t.Fatalf("Render err=%v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "WORKSPACE") || !strings.Contains(lines[0], "TITLE") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "*") || !strings.Contains(lines[1], "workspace:1") || !strings.Contains(lines[1], "main") {
		t.Fatalf("unexpected selected row %q", lines[1])
	}
	if strings.HasPrefix(lines[2], "*") {
		t.Fatalf("unselected row marked: %q", lines[2])
	}
}

func TestRenderSurfacesFlags(t *testing.T) {
	res := map[string]any{
		"surfaces": []any{
			map[string]any{"tab_ref": "tab:4", "title": "build", "pane_ref": "pane:2", "pinned": true, "unread": true},
		},
	}
	var buf bytes.Buffer
	if err := Render(&buf, res); err != nil {
		t.Fatalf("Render err=%v", err)
	}
	out := buf.String()
	for _, want := range []string{"tab:4", "build", "pane:2", "pinned,unread"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestRenderEmptyLists(t *testing.T) {
	cases := map[string]string{
		"hooks":   "no hooks",
		"buffers": "no buffers",
		"matches": "no matches",
	}
	for key, want := range cases {
		var buf bytes.Buffer
		if err := Render(&buf, map[string]any{key: []any{}}); err != nil {
			t.Fatalf("Render(%s) err=%v", key, err)
		}
		if strings.TrimSpace(buf.String()) != want {
			t.Fatalf("Render(%s) = %q, want %q", key, buf.String(), want)
		}
	}
}

func TestRenderFieldsSortedAndFlattened(t *testing.T) {
	res := map[string]any{
		"workspace_ref": "workspace:1",
		"focused":       map[string]any{"pane_ref": "pane:1"},
		"warnings":      []any{"ignored"},
		"names":         []any{"a", "b"},
	}
	var buf bytes.Buffer
	if err := Render(&buf, res); err != nil {
		t.Fatalf("Render err=%v", err)
	}
	want := "focused.pane_ref: pane:1\nnames: a, b\nworkspace_ref: workspace:1\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderCapabilities(t *testing.T) {
	res := map[string]any{
		"methods":       []any{"workspace.list"},
		"not_supported": []any{"popup"},
	}
	var buf bytes.Buffer
	if err := Render(&buf, res); err != nil {
		t.Fatalf("Render err=%v", err)
	}
	want := "methods:\n  workspace.list\nnot supported:\n  popup\n"
	if buf.String() != want {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestTableTruncatesWideCells(t *testing.T) {
	table := Table{Header: []string{"A", "B"}, Rows: [][]string{{strings.Repeat("x", 20), "end"}}, MaxCellWidth: 8}
	var buf bytes.Buffer
	if err := table.Write(&buf); err != nil {
		t.Fatalf("Write err=%v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected lines %q", lines)
	}
	if strings.Contains(lines[1], strings.Repeat("x", 9)) {
		t.Fatalf("cell not truncated: %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], "end") {
		t.Fatalf("last column missing: %q", lines[1])
	}
	if strings.HasSuffix(lines[0], " ") {
		t.Fatalf("header not trimmed: %q", lines[0])
	}
}

func TestFilterIDs(t *testing.T) {
	row := map[string]any{
		"id":           "uuid-1",
		"ref":          "surface:1",
		"tab_ref":      "tab:1",
		"pane_id":      "uuid-2",
		"pane_ref":     "pane:1",
		"workspace_id": "uuid-3",
	}
	refs := FilterIDs(map[string]any{"surfaces": []any{row}}, "refs").(map[string]any)
	got := refs["surfaces"].([]any)[0].(map[string]any)
	if _, ok := got["id"]; ok {
		t.Fatalf("refs kept id: %v", got)
	}
	if _, ok := got["pane_id"]; ok {
		t.Fatalf("refs kept pane_id: %v", got)
	}
	if got["workspace_id"] != "uuid-3" {
		t.Fatalf("id without ref dropped: %v", got)
	}

	ids := FilterIDs(row, "ids").(map[string]any)
	for _, key := range []string{"ref", "tab_ref", "pane_ref"} {
		if _, ok := ids[key]; ok {
			t.Fatalf("ids kept %s: %v", key, ids)
		}
	}
	if ids["id"] != "uuid-1" || ids["pane_id"] != "uuid-2" {
		t.Fatalf("ids dropped ids: %v", ids)
	}

	both := FilterIDs(row, "both").(map[string]any)
	if len(both) != len(row) {
		t.Fatalf("both changed row: %v", both)
	}
}

func TestRenderCreated(t *testing.T) {
	cases := []struct {
		name string
		res  map[string]any
		want string
	}{
		{"ref", map[string]any{"workspace_ref": "workspace:2", "pane_ref": "pane:3"}, "OK workspace:2\n"},
		{"id", map[string]any{"workspace_id": "0f6c"}, "OK 0f6c\n"},
		{"both", map[string]any{"workspace_ref": "workspace:2", "workspace_id": "0f6c"}, "OK workspace:2 0f6c\n"},
		{"nothing named", map[string]any{"message": "done"}, "done\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderCreated(&buf, tc.res, "workspace_ref", "workspace_id"); err != nil {
				t.Fatalf("RenderCreated err=%v", err)
			}
			if buf.String() != tc.want {
				t.Fatalf("RenderCreated = %q, want %q", buf.String(), tc.want)
			}
		})
	}
}
