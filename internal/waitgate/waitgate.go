// Package waitgate implements named wait/signal gates. Waiting never holds
// the session lock; each gate has its own bookkeeping under one mutex.
package waitgate

import (
	"context"
	"errors"
	"sync"

	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/sessionpolicy"
)

type gate struct {
	waiters map[uint64]chan struct{}
	pending bool
}

// Registry holds the live gates. A gate exists while it has waiters or an
// unconsumed signal.
type Registry struct {
	mu     sync.Mutex
	gates  map[string]*gate
	nextID uint64
}

func NewRegistry() *Registry {
	return &Registry{gates: make(map[string]*gate)}
}

// Wait blocks until name is signaled or ctx ends. A signal that arrived while
// nobody was waiting is consumed immediately. Deadline expiry maps to a
// TimedOut error; other cancellation returns ctx.Err().
func (r *Registry) Wait(ctx context.Context, name string) error {
	name, err := sessionpolicy.Name("channel", name)
	if err != nil {
		return err
	}
	if name == "" {
		return muxerr.InvalidArgument("wait-for requires a channel name")
	}
	r.mu.Lock()
	g := r.gateLocked(name)
	if g.pending {
		g.pending = false
		r.dropIfIdleLocked(name, g)
		r.mu.Unlock()
		return nil
	}
	r.nextID++
	id := r.nextID
	ch := make(chan struct{})
	g.waiters[id] = ch
	r.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-ch:
		// Signaled while we were giving up.
		return nil
	default:
	}
	if current, ok := r.gates[name]; ok {
		delete(current.waiters, id)
		r.dropIfIdleLocked(name, current)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return muxerr.TimedOut("wait-for %s timed out", name)
	}
	return ctx.Err()
}

// Signal wakes every current waiter on name and returns how many woke. With
// no waiters the signal is remembered for the next Wait.
func (r *Registry) Signal(name string) (int, error) {
	name, err := sessionpolicy.Name("channel", name)
	if err != nil {
		return 0, err
	}
	if name == "" {
		return 0, muxerr.InvalidArgument("wait-for -S requires a channel name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.gateLocked(name)
	if len(g.waiters) == 0 {
		g.pending = true
		return 0, nil
	}
	woken := len(g.waiters)
	for id, ch := range g.waiters {
		close(ch)
		delete(g.waiters, id)
	}
	r.dropIfIdleLocked(name, g)
	return woken, nil
}

// Waiters reports the number of blocked waiters on name.
func (r *Registry) Waiters(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gates[name]; ok {
		return len(g.waiters)
	}
	return 0
}

// Pending reports whether name holds an unconsumed signal.
func (r *Registry) Pending(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[name]
	return ok && g.pending
}

func (r *Registry) gateLocked(name string) *gate {
	g, ok := r.gates[name]
	if !ok {
		g = &gate{waiters: make(map[uint64]chan struct{})}
		r.gates[name] = g
	}
	return g
}

func (r *Registry) dropIfIdleLocked(name string, g *gate) {
	if len(g.waiters) == 0 && !g.pending {
		delete(r.gates, name)
	}
}
