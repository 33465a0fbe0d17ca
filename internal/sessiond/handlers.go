package sessiond

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/pweiskircher/cmux/internal/command"
	"github.com/pweiskircher/cmux/internal/logging"
	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
)

func (d *Daemon) handleRequest(client *clientConn, env Envelope) Envelope {
	resp := Envelope{Kind: EnvelopeResponse, Op: env.Op, ID: env.ID}
	var (
		payload []byte
		err     error
	)
	switch env.Op {
	case OpHello:
		payload, err = d.handleHello(env.Payload)
	case OpCall:
		payload, err = d.handleCall(client, env.Payload)
	case OpSubscribe:
		payload, err = d.handleSubscribe(client, env.Payload)
	default:
		err = muxerr.New(muxerr.CodeUnknownCommand, "unknown op %q", env.Op)
	}
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorCode = string(muxerr.CodeOf(err))
		return resp
	}
	resp.Payload = payload
	return resp
}

func (d *Daemon) handleHello(payload []byte) ([]byte, error) {
	var req HelloRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, muxerr.InvalidArgument("%v", err)
	}
	if req.Version != "" && d.version != "" && req.Version != d.version {
		slog.Warn("sessiond: client version differs",
			slog.String("client", req.Version),
			slog.String("daemon", d.version))
	}
	return encodePayload(HelloResponse{Version: d.version, PID: os.Getpid()})
}

func (d *Daemon) handleCall(client *clientConn, payload []byte) ([]byte, error) {
	var req CallRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, muxerr.InvalidArgument("%v", err)
	}
	args := command.Args{}
	if len(req.Args) > 0 {
		if err := json.Unmarshal(req.Args, &args); err != nil {
			return nil, muxerr.InvalidArgument("arguments must be a JSON object")
		}
	}
	slog.Debug("sessiond: call",
		slog.Uint64("client", client.id),
		slog.String("method", req.Method),
		logging.PayloadAttr("args", req.Args))
	res, err := d.dispatcher.Dispatch(client.ctx, req.Method, args, command.CallerFromEnv(req.Ambient))
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, muxerr.New(muxerr.CodeInternal, "encode result: %v", err)
	}
	return encodePayload(CallResponse{Result: data})
}

func (d *Daemon) handleSubscribe(client *clientConn, payload []byte) ([]byte, error) {
	var req SubscribeRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, muxerr.InvalidArgument("%v", err)
	}
	for _, name := range req.Events {
		if !mux.IsEvent(name) {
			return nil, muxerr.InvalidArgument("unknown event %q", name)
		}
	}
	client.subscribe(req.Events)
	events := req.Events
	if len(events) == 0 {
		events = mux.EventNames()
	}
	return encodePayload(SubscribeResponse{Events: events})
}
