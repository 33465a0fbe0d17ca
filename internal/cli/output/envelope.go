// Package output renders command results: JSON envelopes for --json,
// plain text and tables otherwise.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Schema names the envelope layout. It changes only when a field changes
// meaning.
const Schema = "cmux.v1"

type Meta struct {
	Command string `json:"command"`
	// Method is the dispatcher method the command ran, when it differs
	// from Command.
	Method     string    `json:"method,omitempty"`
	Schema     string    `json:"schema"`
	Version    string    `json:"version,omitempty"`
	DurationMS float64   `json:"duration_ms,omitempty"`
	TS         time.Time `json:"ts"`
	Stream     bool      `json:"stream,omitempty"`
	Seq        int64     `json:"seq,omitempty"`
}

// Failure is the error half of an envelope. Code is a muxerr code or
// daemon_unavailable.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Envelope is one JSON document on stdout. Data is set when Ok, Error
// otherwise.
type Envelope struct {
	Ok       bool     `json:"ok"`
	Data     any      `json:"data,omitempty"`
	Error    *Failure `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Meta     Meta     `json:"meta"`
}

func NewMeta(command, version string) Meta {
	return Meta{
		Command: command,
		Schema:  Schema,
		Version: version,
		TS:      time.Now().UTC(),
	}
}

// Frame marks m as frame seq of a stream. Streams write one envelope per
// line.
func (m Meta) Frame(seq int64) Meta {
	m.Stream = true
	m.Seq = seq
	m.TS = time.Now().UTC()
	return m
}

// Since records the time elapsed since start.
func (m Meta) Since(start time.Time) Meta {
	m.DurationMS = float64(time.Since(start).Microseconds()) / 1000
	return m
}

func WriteSuccess(w io.Writer, meta Meta, data any, warnings ...string) error {
	return writeJSON(w, Envelope{Ok: true, Data: data, Warnings: warnings, Meta: meta})
}

func WriteError(w io.Writer, meta Meta, failure Failure) error {
	if failure.Code == "" {
		failure.Code = "internal"
	}
	if failure.Message == "" {
		failure.Message = "unknown error"
	}
	return writeJSON(w, Envelope{Error: &failure, Meta: meta})
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
