package sessiond

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pweiskircher/cmux/internal/logging"
)

const dropWarnInterval = 10 * time.Second

type clientConn struct {
	id      uint64
	conn    net.Conn
	respCh  chan Envelope
	eventCh chan Envelope
	done    chan struct{}

	// ctx ends when the connection closes so blocking commands stop waiting
	// for a caller that went away.
	ctx    context.Context
	cancel context.CancelFunc

	filterMu   sync.RWMutex
	filter     eventFilter
	subscribed atomic.Bool

	closeOnce sync.Once
}

func (d *Daemon) newClient(conn net.Conn) *clientConn {
	ctx, cancel := context.WithCancel(d.ctx)
	return &clientConn{
		id:      d.clientSeq.Add(1),
		conn:    conn,
		respCh:  make(chan Envelope, 64),
		eventCh: make(chan Envelope, 256),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *clientConn) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *clientConn) subscribe(names []string) {
	c.filterMu.Lock()
	c.filter = newEventFilter(names)
	c.filterMu.Unlock()
	c.subscribed.Store(true)
}

func (c *clientConn) wants(name string) bool {
	if !c.subscribed.Load() {
		return false
	}
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()
	return c.filter.allows(name)
}

func (d *Daemon) registerClient(client *clientConn) bool {
	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()
	if d.closing.Load() {
		return false
	}
	d.clients[client.id] = client
	return true
}

func (d *Daemon) removeClient(client *clientConn) {
	d.clientsMu.Lock()
	delete(d.clients, client.id)
	d.clientsMu.Unlock()
}

func (d *Daemon) dropClient(client *clientConn) {
	d.removeClient(client)
	client.close()
}

// readLoop decodes requests and runs each one on its own goroutine, so a
// blocking command (wait-for) never stalls the rest of the connection.
func (d *Daemon) readLoop(client *clientConn) {
	defer d.wg.Done()
	var inflight sync.WaitGroup
	defer inflight.Wait()
	defer d.dropClient(client)
	for {
		if err := client.conn.SetReadDeadline(time.Now().Add(defaultReadTimeout)); err != nil {
			return
		}
		env, err := readEnvelope(client.conn)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return
		}
		if env.Kind != EnvelopeRequest {
			continue
		}
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			resp := d.handleRequest(client, env)
			d.sendResponse(client, resp)
		}()
	}
}

func (d *Daemon) sendResponse(client *clientConn, env Envelope) {
	select {
	case client.respCh <- env:
	case <-client.done:
	}
}

func (d *Daemon) writeLoop(client *clientConn) {
	defer d.wg.Done()
	for {
		// Responses go first so an event burst cannot delay a reply.
		select {
		case env := <-client.respCh:
			if !d.write(client, env) {
				return
			}
			continue
		default:
		}
		select {
		case env := <-client.respCh:
			if !d.write(client, env) {
				return
			}
		case env := <-client.eventCh:
			if !d.write(client, env) {
				return
			}
		case <-client.done:
			return
		}
	}
}

func (d *Daemon) write(client *clientConn, env Envelope) bool {
	if err := client.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout)); err != nil {
		d.dropClient(client)
		return false
	}
	if err := writeEnvelope(client.conn, env); err != nil {
		slog.Debug("sessiond: client write failed", slog.Uint64("client", client.id), slog.Any("err", err))
		d.dropClient(client)
		return false
	}
	return true
}

func (d *Daemon) broadcast(event Event) {
	d.clientsMu.RLock()
	defer d.clientsMu.RUnlock()
	if len(d.clients) == 0 {
		return
	}
	var env Envelope
	for _, client := range d.clients {
		if !client.wants(event.Name) {
			continue
		}
		if env.Kind == 0 {
			payload, err := encodePayload(event)
			if err != nil {
				slog.Warn("sessiond: encode event", slog.Any("err", err))
				return
			}
			env = Envelope{Kind: EnvelopeEvent, Op: OpSubscribe, Payload: payload}
		}
		select {
		case client.eventCh <- env:
		case <-client.done:
		default:
			logging.LogEvery(d.ctx, "sessiond.event_drop", dropWarnInterval, slog.LevelWarn,
				"sessiond: dropped event for slow client",
				slog.Uint64("client", client.id),
				slog.String("event", event.Name))
		}
	}
}
