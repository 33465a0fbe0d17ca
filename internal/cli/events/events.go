package events

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pweiskircher/cmux/internal/cli/output"
	"github.com/pweiskircher/cmux/internal/cli/root"
	"github.com/pweiskircher/cmux/internal/sessiond"
)

// Register registers event handlers.
func Register(reg *root.Registry) {
	reg.Register("events", runWatch)
}

func runWatch(ctx root.CommandContext) error {
	client, err := ctx.Connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	var types []string
	limit := 0
	if ctx.Cmd != nil {
		types = eventTypes(ctx.Cmd.StringSlice("types"))
		limit = int(ctx.Cmd.Int("count"))
	}
	if _, err := client.Subscribe(ctx.Context, types...); err != nil {
		return err
	}
	streamSeq := int64(0)
	for {
		select {
		case <-ctx.Context.Done():
			return nil
		case <-client.Done():
			return nil
		case ev, ok := <-client.Events():
			if !ok {
				return nil
			}
			streamSeq++
			if err := writeEvent(ctx, ev, streamSeq); err != nil {
				return err
			}
			if limit > 0 && streamSeq >= int64(limit) {
				return nil
			}
		}
	}
}

func writeEvent(ctx root.CommandContext, ev sessiond.Event, seq int64) error {
	if ctx.JSON {
		meta := output.NewMeta("events", ctx.Deps.Version).Frame(seq)
		return output.WriteSuccess(ctx.Out, meta, struct {
			Event sessiond.Event `json:"event"`
		}{Event: ev})
	}
	return writeEventLine(ctx.Out, ev)
}

func writeEventLine(w io.Writer, ev sessiond.Event) error {
	fields := []string{ev.TS.Format(time.RFC3339), ev.Name}
	for _, part := range []struct{ key, value string }{
		{"workspace", ev.WorkspaceID},
		{"pane", ev.PaneID},
		{"surface", ev.SurfaceID},
	} {
		if part.value != "" {
			fields = append(fields, part.key+"="+part.value)
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(fields, "\t"))
	return err
}

func eventTypes(values []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
