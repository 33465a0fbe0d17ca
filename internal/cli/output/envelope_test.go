package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeEnvelope(t *testing.T, data []byte) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return env
}

func TestWriteSuccessCarriesWarnings(t *testing.T) {
	var buf bytes.Buffer
	meta := NewMeta("workspace.create", "test")
	if err := WriteSuccess(&buf, meta, map[string]any{"workspace_ref": "workspace:1"}, "hook workspace-created: boom"); err != nil {
		t.Fatalf("WriteSuccess err=%v", err)
	}
	env := decodeEnvelope(t, buf.Bytes())
	if !env.Ok || env.Error != nil {
		t.Fatalf("unexpected envelope %s", buf.String())
	}
	if len(env.Warnings) != 1 || !strings.Contains(env.Warnings[0], "boom") {
		t.Fatalf("warnings = %v", env.Warnings)
	}
	if strings.Contains(buf.String(), `"error"`) {
		t.Fatalf("success envelope has an error field: %s", buf.String())
	}
}

func TestWriteErrorWithHint(t *testing.T) {
	var buf bytes.Buffer
	meta := NewMeta("workspace.list", "test")
	failure := Failure{Code: "daemon_unavailable", Message: "dial: no such file", Hint: "start it with: cmux daemon start"}
	if err := WriteError(&buf, meta, failure); err != nil {
		t.Fatalf("WriteError err=%v", err)
	}
	env := decodeEnvelope(t, buf.Bytes())
	if env.Ok || env.Error == nil || *env.Error != failure {
		t.Fatalf("unexpected envelope %s", buf.String())
	}
	if strings.Contains(buf.String(), `"data"`) {
		t.Fatalf("error envelope has a data field: %s", buf.String())
	}
}

func TestWriteErrorDefaults(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteError(&buf, NewMeta("pane.split", "test"), Failure{}); err != nil {
		t.Fatalf("WriteError: %v", err)
	}
	env := decodeEnvelope(t, buf.Bytes())
	if env.Error.Code != "internal" || env.Error.Message != "unknown error" {
		t.Fatalf("unexpected defaults: %+v", env.Error)
	}
}

func TestMetaFrameAndSince(t *testing.T) {
	meta := NewMeta("events", "1.2.3")
	if meta.Command != "events" || meta.Schema != Schema || meta.Version != "1.2.3" {
		t.Fatalf("NewMeta = %+v", meta)
	}
	frame := meta.Frame(7)
	if !frame.Stream || frame.Seq != 7 || meta.Stream {
		t.Fatalf("Frame = %+v, base = %+v", frame, meta)
	}
	timed := meta.Since(time.Now().Add(-2 * time.Second))
	if timed.DurationMS < 2000 {
		t.Fatalf("DurationMS = %f", timed.DurationMS)
	}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestWriteSuccessErrorPropagation(t *testing.T) {
	err := WriteSuccess(errWriter{}, NewMeta("system.ping", "test"), map[string]string{"pong": "true"})
	if err == nil || !strings.Contains(err.Error(), "encode json") {
		t.Fatalf("expected encode json error, got %v", err)
	}
}
