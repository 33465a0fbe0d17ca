package sessiond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pweiskircher/cmux/internal/command"
	"github.com/pweiskircher/cmux/internal/logging"
	"github.com/pweiskircher/cmux/internal/runenv"
)

const (
	// eventQueue is how many undelivered events a client holds before it
	// starts dropping them.
	eventQueue       = 256
	dialTimeout      = 2 * time.Second
	handshakeTimeout = 5 * time.Second
)

// Client is one CLI connection to the daemon. Calls may run concurrently;
// responses are matched by envelope id.
type Client struct {
	conn    net.Conn
	version string
	server  HelloResponse

	seq   atomic.Uint64
	wmu   sync.Mutex
	calls inflight

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// inflight holds the reply channel of each outstanding request. A nil
// map means the client is closed.
type inflight struct {
	mu   sync.Mutex
	byID map[uint64]chan Envelope
}

func (f *inflight) add(id uint64) (chan Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byID == nil {
		return nil, false
	}
	ch := make(chan Envelope, 1)
	f.byID[id] = ch
	return ch, true
}

func (f *inflight) take(id uint64) chan Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := f.byID[id]
	delete(f.byID, id)
	return ch
}

// abandon closes every reply channel, waking the waiting calls.
func (f *inflight) abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.byID {
		close(ch)
	}
	f.byID = nil
}

// Dial connects to a running daemon and completes the hello handshake.
// It never starts one; see Connect.
func Dial(ctx context.Context, socketPath, version string) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	c := &Client{
		conn:    conn,
		version: version,
		calls:   inflight{byID: map[uint64]chan Envelope{}},
		events:  make(chan Event, eventQueue),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	helloCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	var hello HelloResponse
	if err := c.roundTrip(helloCtx, OpHello, HelloRequest{Version: version, ClientID: uuid.NewString()}, &hello); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("daemon handshake: %w", err)
	}
	c.server = hello
	if hello.Version != version && hello.Version != "" && version != "" {
		slog.Debug("sessiond: daemon runs another build",
			slog.String("client", version), slog.String("daemon", hello.Version))
	}
	return c, nil
}

// Close drops the connection. Pending calls fail with ErrConnectionLost.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
		c.calls.abandon()
		close(c.done)
	})
	return nil
}

// Done is closed once the connection ends, from either side.
func (c *Client) Done() <-chan struct{} { return c.done }

// Events delivers subscribed events. Nothing arrives before Subscribe.
func (c *Client) Events() <-chan Event {
	if c == nil {
		return nil
	}
	return c.events
}

func (c *Client) ServerVersion() string { return c.server.Version }

func (c *Client) ServerPID() int { return c.server.PID }

// Call runs method on the daemon with the caller's ambient context.
func (c *Client) Call(ctx context.Context, method string, args command.Args, ambient runenv.Ambient) (command.Result, error) {
	req := CallRequest{Method: method, Ambient: ambient}
	if len(args) > 0 {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode %s args: %w", method, err)
		}
		req.Args = raw
	}
	var resp CallResponse
	if err := c.roundTrip(ctx, OpCall, req, &resp); err != nil {
		return nil, err
	}
	res := command.Result{}
	if len(resp.Result) == 0 {
		return res, nil
	}
	if err := json.Unmarshal(resp.Result, &res); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	return res, nil
}

// Subscribe starts event delivery. No names means every event; the
// daemon answers with the names it accepted.
func (c *Client) Subscribe(ctx context.Context, names ...string) ([]string, error) {
	var resp SubscribeResponse
	if err := c.roundTrip(ctx, OpSubscribe, SubscribeRequest{Events: names}, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *Client) readLoop() {
	defer func() { _ = c.Close() }()
	for {
		env, err := readEnvelope(c.conn)
		if err != nil {
			return
		}
		switch env.Kind {
		case EnvelopeResponse:
			if ch := c.calls.take(env.ID); ch != nil {
				ch <- env
			}
		case EnvelopeEvent:
			c.deliver(env)
		}
	}
}

func (c *Client) deliver(env Envelope) {
	var ev Event
	if err := decodePayload(env.Payload, &ev); err != nil {
		slog.Debug("sessiond: undecodable event", slog.Any("err", err))
		return
	}
	select {
	case c.events <- ev:
	default:
		logging.LogEvery(context.Background(), "sessiond.client_event_drop", dropWarnInterval, slog.LevelWarn,
			"sessiond: event queue full, dropping", slog.String("event", ev.Name))
	}
}

// roundTrip sends one request and decodes the matching response into out.
func (c *Client) roundTrip(ctx context.Context, op Op, req, out any) error {
	if c == nil {
		return ErrClientClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := encodePayload(req)
	if err != nil {
		return err
	}
	id := c.seq.Add(1)
	reply, ok := c.calls.add(id)
	if !ok {
		return ErrClientClosed
	}
	if err := c.write(ctx, Envelope{Kind: EnvelopeRequest, Op: op, ID: id, Payload: payload}); err != nil {
		c.calls.take(id)
		return err
	}
	select {
	case <-ctx.Done():
		c.calls.take(id)
		return ctx.Err()
	case env, ok := <-reply:
		if !ok {
			return ErrConnectionLost
		}
		if err := responseError(env); err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		return decodePayload(env.Payload, out)
	}
}

func (c *Client) write(ctx context.Context, env Envelope) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	deadline := time.Now().Add(defaultWriteTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	err := writeEnvelope(c.conn, env)
	if err != nil && isTimeout(err) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// probeDaemon succeeds when a daemon answers the handshake on socketPath.
func probeDaemon(ctx context.Context, socketPath, version string) error {
	c, err := Dial(ctx, socketPath, version)
	if err == nil {
		return c.Close()
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrDaemonProbeTimeout, err)
	}
	return err
}
