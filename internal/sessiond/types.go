package sessiond

import (
	"time"

	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/runenv"
)

// Op identifies a daemon operation.
type Op string

const (
	OpHello     Op = "hello"
	OpCall      Op = "call"
	OpSubscribe Op = "subscribe"
)

// HelloRequest begins a connection handshake.
type HelloRequest struct {
	Version  string
	ClientID string
}

// HelloResponse reports the daemon build and process.
type HelloResponse struct {
	Version string
	PID     int
}

// CallRequest runs one dispatcher command. Args is the JSON encoding of the
// argument map; Ambient carries the caller's inherited target ids.
type CallRequest struct {
	Method  string
	Args    []byte
	Ambient runenv.Ambient
}

// CallResponse holds the JSON encoding of the command result.
type CallResponse struct {
	Result []byte
}

// SubscribeRequest asks for event frames. No names means every event.
type SubscribeRequest struct {
	Events []string
}

type SubscribeResponse struct {
	Events []string
}

// Event is a session change pushed to subscribers.
type Event struct {
	Name        string    `json:"event"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	PaneID      string    `json:"pane_id,omitempty"`
	SurfaceID   string    `json:"surface_id,omitempty"`
	TS          time.Time `json:"ts"`
}

func eventFrom(ev mux.Event, ts time.Time) Event {
	return Event{
		Name:        ev.Name,
		WorkspaceID: ev.WorkspaceID,
		PaneID:      ev.PaneID,
		SurfaceID:   ev.SurfaceID,
		TS:          ts,
	}
}

// eventFilter selects events by name. A nil filter passes everything.
type eventFilter map[string]bool

func newEventFilter(names []string) eventFilter {
	if len(names) == 0 {
		return nil
	}
	f := make(eventFilter, len(names))
	for _, name := range names {
		f[name] = true
	}
	return f
}

func (f eventFilter) allows(name string) bool {
	return f == nil || f[name]
}
