package root

import (
	"strings"

	"github.com/pweiskircher/cmux/internal/cli/spec"
)

// Handler runs one command.
type Handler func(ctx CommandContext) error

// Registry binds command IDs from commands.yaml to handlers. A nil
// *Registry has no handlers.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register binds id to h, replacing an earlier binding. Empty IDs and nil
// handlers are ignored.
func (r *Registry) Register(id string, h Handler) {
	if r == nil || h == nil || strings.TrimSpace(id) == "" {
		return
	}
	r.handlers[id] = h
}

func (r *Registry) HandlerFor(id string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[id]
	return h, ok
}

// Unbound lists the leaf command IDs in specDoc that have no handler, in
// spec order.
func (r *Registry) Unbound(specDoc *spec.Spec) []string {
	if specDoc == nil {
		return nil
	}
	var out []string
	for _, cmd := range specDoc.AllCommands() {
		if len(cmd.Subcommands) > 0 {
			continue
		}
		if _, ok := r.HandlerFor(cmd.ID); !ok {
			out = append(out, cmd.ID)
		}
	}
	return out
}

// EnsureHandlers fails when any leaf command is unbound.
func (r *Registry) EnsureHandlers(specDoc *spec.Spec) error {
	if missing := r.Unbound(specDoc); len(missing) > 0 {
		return unboundCommandError(strings.Join(missing, ", "))
	}
	return nil
}
