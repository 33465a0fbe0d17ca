package sessiond

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
)

// maxFrameSize bounds one envelope on the wire.
const maxFrameSize = 16 << 20

// EnvelopeKind distinguishes request/response/event frames.
type EnvelopeKind uint8

const (
	EnvelopeRequest EnvelopeKind = iota + 1
	EnvelopeResponse
	EnvelopeEvent
)

// Envelope is the framed message payload exchanged between client and daemon.
// ErrorCode carries the muxerr code of a failed request.
type Envelope struct {
	Kind      EnvelopeKind
	Op        Op
	ID        uint64
	Payload   []byte
	Error     string
	ErrorCode string
}

func encodePayload(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return buf.Bytes(), nil
}

func decodePayload(data []byte, v any) error {
	if v == nil || len(data) == 0 {
		return nil
	}
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// writeEnvelope writes one frame: a big-endian uint32 length followed by the
// gob-encoded envelope. The frame goes out in a single Write.
func writeEnvelope(w io.Writer, env Envelope) error {
	var body bytes.Buffer
	body.Write(make([]byte, 4))
	if err := gob.NewEncoder(&body).Encode(env); err != nil {
		return fmt.Errorf("sessiond: encode envelope: %w", err)
	}
	frame := body.Bytes()
	size := len(frame) - 4
	if size > maxFrameSize {
		return fmt.Errorf("sessiond: envelope too large (%d bytes)", size)
	}
	binary.BigEndian.PutUint32(frame[:4], uint32(size))
	_, err := w.Write(frame)
	return err
}

func readEnvelope(r io.Reader) (Envelope, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Envelope{}, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size == 0 || size > maxFrameSize {
		return Envelope{}, fmt.Errorf("sessiond: invalid frame size %d", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("sessiond: decode envelope: %w", err)
	}
	return env, nil
}
