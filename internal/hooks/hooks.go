// Package hooks stores event → command bindings.
package hooks

import (
	"sort"
	"strings"

	"github.com/pweiskircher/cmux/internal/muxerr"
)

// Hook is one binding. Preset marks bindings loaded from the config file.
type Hook struct {
	Event   string `json:"event"`
	Command string `json:"command"`
	Preset  bool   `json:"preset,omitempty"`
}

// Registry maps event names to commands. It is not safe for concurrent use;
// the dispatcher serializes access.
type Registry struct {
	entries map[string]Hook
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Hook)}
}

// Set binds event to command, replacing any earlier binding.
func (r *Registry) Set(event, command string) error {
	event = strings.TrimSpace(event)
	command = strings.TrimSpace(command)
	if event == "" {
		return muxerr.InvalidArgument("set-hook requires an event name")
	}
	if command == "" {
		return muxerr.InvalidArgument("set-hook requires a command")
	}
	r.entries[event] = Hook{Event: event, Command: command}
	return nil
}

// Unset removes a binding and reports whether one existed.
func (r *Registry) Unset(event string) bool {
	event = strings.TrimSpace(event)
	if _, ok := r.entries[event]; !ok {
		return false
	}
	delete(r.entries, event)
	return true
}

// Lookup returns the command bound to event.
func (r *Registry) Lookup(event string) (string, bool) {
	hook, ok := r.entries[event]
	if !ok {
		return "", false
	}
	return hook.Command, true
}

// List returns every binding sorted by event name.
func (r *Registry) List() []Hook {
	out := make([]Hook, 0, len(r.entries))
	for _, hook := range r.entries {
		out = append(out, hook)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event < out[j].Event })
	return out
}

// ApplyPresets replaces the config-file bindings. Bindings made at runtime
// win over presets for the same event.
func (r *Registry) ApplyPresets(presets map[string]string) {
	for event, hook := range r.entries {
		if hook.Preset {
			delete(r.entries, event)
		}
	}
	for event, command := range presets {
		event = strings.TrimSpace(event)
		command = strings.TrimSpace(command)
		if event == "" || command == "" {
			continue
		}
		if _, taken := r.entries[event]; taken {
			continue
		}
		r.entries[event] = Hook{Event: event, Command: command, Preset: true}
	}
}
