package command

import (
	"sort"
	"strings"

	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

// access says how a command touches the session.
type access int

const (
	// accessRead runs under the shared lock against the live state.
	accessRead access = iota
	// accessMutate runs under the exclusive lock against a clone that is
	// committed only when the handler succeeds.
	accessMutate
	// accessUnlocked never takes the session lock (wait-for, run-shell).
	accessUnlocked
)

type handler func(c *call) (Result, error)

// flagSpec maps a short flag to an argument. An empty value means the flag
// takes the next token.
type flagSpec struct {
	key   string
	value string
}

type entry struct {
	method     string
	verbs      []string
	access     access
	positional []string
	bools      []string
	shorts     map[string]flagSpec
	run        handler
}

func (e *entry) isBool(key string) bool {
	for _, b := range e.bools {
		if b == key {
			return true
		}
	}
	return false
}

// notSupported are tmux verbs that are recognised and refused.
var notSupported = []string{
	"attach-session",
	"bind-key",
	"choose-tree",
	"command-prompt",
	"copy-mode",
	"detach-client",
	"display-menu",
	"display-popup",
	"popup",
	"source-file",
	"unbind-key",
}

var registry struct {
	entries      []*entry
	byName       map[string]*entry
	notSupported map[string]bool
}

func init() {
	registry.entries = commands()
	registry.byName = make(map[string]*entry)
	for _, e := range registry.entries {
		registry.byName[e.method] = e
		for _, verb := range e.verbs {
			registry.byName[verb] = e
		}
	}
	registry.notSupported = make(map[string]bool, len(notSupported))
	for _, verb := range notSupported {
		registry.notSupported[verb] = true
	}
}

func commands() []*entry {
	directions := map[string]flagSpec{
		"-L": {key: "direction", value: "left"},
		"-R": {key: "direction", value: "right"},
		"-U": {key: "direction", value: "up"},
		"-D": {key: "direction", value: "down"},
	}
	return []*entry{
		{method: "system.ping", verbs: []string{"ping"}, access: accessUnlocked, run: ping},
		{method: "system.capabilities", verbs: []string{"capabilities"}, access: accessUnlocked, run: capabilities},
		{method: "system.identify", verbs: []string{"identify"}, access: accessRead, run: identify},

		{method: "workspace.list", verbs: []string{"list-workspaces", "list-windows"}, access: accessRead, run: listWorkspaces},
		{method: "workspace.current", verbs: []string{"current-workspace"}, access: accessRead, run: currentWorkspace},
		{method: "workspace.create", verbs: []string{"new-workspace", "new-window"}, access: accessMutate, positional: []string{"command"}, run: createWorkspace},
		{method: "workspace.select", verbs: []string{"select-workspace", "select-window"}, access: accessMutate, positional: []string{"workspace"}, run: selectWorkspace},
		{method: "workspace.next", verbs: []string{"next-window", "next-workspace"}, access: accessMutate, run: nextWorkspace},
		{method: "workspace.previous", verbs: []string{"previous-window", "previous-workspace"}, access: accessMutate, run: previousWorkspace},
		{method: "workspace.last", verbs: []string{"last-window", "last-workspace"}, access: accessMutate, run: lastWorkspace},
		{method: "workspace.rename", verbs: []string{"rename-workspace", "rename-window"}, access: accessMutate, positional: []string{"title"}, run: renameWorkspace},
		{method: "workspace.close", verbs: []string{"close-workspace", "kill-window"}, access: accessMutate, positional: []string{"workspace"}, run: closeWorkspace},
		{method: "workspace.action", verbs: []string{"workspace-action"}, access: accessMutate, positional: []string{"action", "title"}, run: workspaceAction},
		{method: "workspace.resize", verbs: []string{"resize-workspace"}, access: accessMutate, run: resizeWorkspace},
		{method: "workspace.layout", verbs: []string{"workspace-layout"}, access: accessRead, run: workspaceLayout},
		{method: "workspace.find", verbs: []string{"find-window"}, access: accessRead, positional: []string{"query"}, run: findWindow},

		{method: "pane.list", verbs: []string{"list-panes"}, access: accessRead, run: listPanes},
		{
			method: "pane.split", verbs: []string{"new-pane", "split-window"}, access: accessMutate,
			positional: []string{"command"}, bools: []string{"focus"},
			shorts: map[string]flagSpec{
				"-h": {key: "direction", value: "right"},
				"-v": {key: "direction", value: "down"},
				"-d": {key: "focus", value: "false"},
				"-p": {key: "percent"},
			},
			run: splitPane,
		},
		{method: "pane.focus", verbs: []string{"select-pane", "focus-pane"}, access: accessMutate, positional: []string{"pane"}, run: focusPane},
		{method: "pane.last", verbs: []string{"last-pane"}, access: accessMutate, run: lastPane},
		{method: "pane.swap", verbs: []string{"swap-pane"}, access: accessMutate, run: swapPanes},
		{method: "pane.break", verbs: []string{"break-pane"}, access: accessMutate, run: breakPane},
		{method: "pane.join", verbs: []string{"join-pane", "move-pane"}, access: accessMutate, run: joinPane},
		{
			method: "pane.resize", verbs: []string{"resize-pane"}, access: accessMutate,
			bools:  []string{"zoom"},
			shorts: withShorts(directions, map[string]flagSpec{"-Z": {key: "zoom", value: "true"}}),
			run:    resizePane,
		},
		{method: "pane.zoom", verbs: []string{"zoom-pane"}, access: accessMutate, run: zoomPane},
		{method: "pane.close", verbs: []string{"close-pane", "kill-pane"}, access: accessMutate, run: closePane},

		{method: "surface.list", verbs: []string{"list-surfaces", "list-tabs"}, access: accessRead, run: listSurfaces},
		{method: "surface.current", verbs: []string{"current-surface"}, access: accessRead, run: currentSurface},
		{method: "surface.create", verbs: []string{"new-surface", "new-tab"}, access: accessMutate, positional: []string{"command"}, run: createSurface},
		{method: "surface.focus", verbs: []string{"select-surface", "select-tab", "focus-surface"}, access: accessMutate, positional: []string{"surface"}, run: focusSurface},
		{method: "surface.close", verbs: []string{"close-surface", "close-tab", "kill-surface"}, access: accessMutate, run: closeSurface},
		{method: "surface.rename", verbs: []string{"rename-tab", "rename-surface"}, access: accessMutate, positional: []string{"title"}, run: renameSurface},
		{
			method: "surface.send_text", verbs: []string{"send-text", "send-keys"}, access: accessRead,
			positional: []string{"text"}, bools: []string{"enter"},
			run: sendText,
		},
		{
			method: "surface.read_text", verbs: []string{"read-screen", "capture-pane"}, access: accessRead,
			bools:  []string{"scrollback", "print"},
			shorts: map[string]flagSpec{"-p": {key: "print", value: "true"}, "-J": {key: "scrollback", value: "true"}},
			run:    readText,
		},
		{method: "surface.clear_history", verbs: []string{"clear-history"}, access: accessRead, run: clearHistory},
		{method: "surface.respawn", verbs: []string{"respawn-pane", "respawn-surface"}, access: accessMutate, positional: []string{"command"}, run: respawnSurface},
		{method: "surface.pipe", verbs: []string{"pipe-pane"}, access: accessRead, positional: []string{"command"}, run: pipeSurface},
		{method: "surface.action", verbs: []string{"surface-action"}, access: accessMutate, positional: []string{"action", "title"}, run: tabAction},
		{method: "tab.action", verbs: []string{"tab-action"}, access: accessMutate, positional: []string{"action", "title"}, run: tabAction},

		{
			method: "hook.set", verbs: []string{"set-hook"}, access: accessMutate,
			positional: []string{"event", "command"}, bools: []string{"list", "unset"},
			shorts: map[string]flagSpec{"-u": {key: "unset", value: "true"}},
			run:    setHook,
		},
		{method: "hook.list", verbs: []string{"list-hooks", "show-hooks"}, access: accessRead, run: listHooks},
		{method: "hook.unset", verbs: []string{"unset-hook"}, access: accessMutate, positional: []string{"event"}, run: unsetHook},

		{
			method: "buffer.set", verbs: []string{"set-buffer"}, access: accessMutate,
			positional: []string{"data"}, shorts: map[string]flagSpec{"-b": {key: "name"}},
			run: setBuffer,
		},
		{method: "buffer.list", verbs: []string{"list-buffers"}, access: accessRead, run: listBuffers},
		{method: "buffer.get", verbs: []string{"show-buffer"}, access: accessRead, positional: []string{"name"}, run: getBuffer},
		{method: "buffer.delete", verbs: []string{"delete-buffer"}, access: accessMutate, positional: []string{"name"}, run: deleteBuffer},
		{
			method: "buffer.paste", verbs: []string{"paste-buffer"}, access: accessMutate,
			bools:  []string{"delete"},
			shorts: map[string]flagSpec{"-b": {key: "name"}, "-d": {key: "delete", value: "true"}},
			run:    pasteBuffer,
		},

		{
			method: "wait.wait", verbs: []string{"wait-for"}, access: accessUnlocked,
			positional: []string{"name"}, bools: []string{"signal"},
			shorts: map[string]flagSpec{"-S": {key: "signal", value: "true"}},
			run:    waitFor,
		},
		{method: "wait.signal", verbs: []string{"signal"}, access: accessUnlocked, positional: []string{"name"}, run: signalGate},

		{
			method: "display.message", verbs: []string{"display-message"}, access: accessRead,
			positional: []string{"message"}, bools: []string{"print"},
			shorts: map[string]flagSpec{"-p": {key: "print", value: "true"}},
			run:    displayMessage,
		},
		{method: "shell.run", verbs: []string{"run-shell"}, access: accessUnlocked, positional: []string{"command"}, run: runShell},
	}
}

func withShorts(sets ...map[string]flagSpec) map[string]flagSpec {
	out := make(map[string]flagSpec)
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

// lookup resolves a method name or tmux verb. Method names also accept
// dashes in place of underscores.
func lookup(name string) (*entry, error) {
	name = strings.TrimSpace(name)
	if e, ok := registry.byName[name]; ok {
		return e, nil
	}
	if strings.Contains(name, ".") {
		if e, ok := registry.byName[strings.ReplaceAll(name, "-", "_")]; ok {
			return e, nil
		}
	}
	if registry.notSupported[name] {
		return nil, muxerr.NotSupported("%s is not supported", name)
	}
	return nil, muxerr.UnknownCommand(name)
}

// Known reports whether name is a method or verb the dispatcher runs.
func Known(name string) bool {
	_, err := lookup(name)
	return err == nil
}

// Method returns the canonical method name for a method or verb.
func Method(name string) (string, error) {
	e, err := lookup(name)
	if err != nil {
		return "", err
	}
	return e.method, nil
}

// Capabilities lists what this build understands.
type Capabilities struct {
	Methods      []string `json:"methods"`
	Verbs        []string `json:"verbs"`
	NotSupported []string `json:"not_supported"`
	Events       []string `json:"events"`
}

// ListCapabilities returns the methods, verbs and events of this build.
func ListCapabilities() Capabilities {
	out := Capabilities{
		NotSupported: append([]string(nil), notSupported...),
		Events:       mux.EventNames(),
	}
	for _, e := range registry.entries {
		out.Methods = append(out.Methods, e.method)
		out.Verbs = append(out.Verbs, e.verbs...)
	}
	sort.Strings(out.Methods)
	sort.Strings(out.Verbs)
	sort.Strings(out.NotSupported)
	return out
}
