package sessiond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/pweiskircher/cmux/internal/command"
	"github.com/pweiskircher/cmux/internal/logging"
	"github.com/pweiskircher/cmux/internal/mux"
	"github.com/pweiskircher/cmux/internal/muxerr"
	"github.com/pweiskircher/cmux/internal/runenv"
)

const (
	bridgePath         = "/ws"
	bridgeWriteTimeout = 10 * time.Second
	bridgeSendBuffer   = 256
	bridgeCallRate     = 200
	bridgeCallBurst    = 50

	codeRateLimited = "rate_limited"
)

type wsClientMessage struct {
	Type    string       `json:"type"`
	ID      uint64       `json:"id,omitempty"`
	Method  string       `json:"method,omitempty"`
	Args    command.Args `json:"args,omitempty"`
	Ambient wsAmbient    `json:"ambient,omitempty"`
	Events  []string     `json:"events,omitempty"`
}

type wsAmbient struct {
	WorkspaceID string `json:"workspace_id,omitempty"`
	PaneID      string `json:"pane_id,omitempty"`
	SurfaceID   string `json:"surface_id,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsServerMessage struct {
	Type    string         `json:"type"`
	ID      uint64         `json:"id,omitempty"`
	OK      bool           `json:"ok,omitempty"`
	Result  command.Result `json:"result,omitempty"`
	Error   *wsError       `json:"error,omitempty"`
	Event   *Event         `json:"event,omitempty"`
	Events  []string       `json:"events,omitempty"`
	Version string         `json:"version,omitempty"`
}

// bridge serves the dispatcher to GUI clients as JSON over websocket.
type bridge struct {
	d        *Daemon
	upgrader websocket.Upgrader

	callRate  rate.Limit
	callBurst int

	mu    sync.Mutex
	conns map[*bridgeConn]struct{}
}

type bridgeConn struct {
	conn    *websocket.Conn
	send    chan wsServerMessage
	done    chan struct{}
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	filterMu   sync.RWMutex
	filter     eventFilter
	subscribed bool

	closeOnce sync.Once
}

func newBridge(d *Daemon) *bridge {
	return &bridge{
		d: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     allowWSOrigin,
		},
		callRate:  rate.Limit(bridgeCallRate),
		callBurst: bridgeCallBurst,
		conns:     make(map[*bridgeConn]struct{}),
	}
}

func allowWSOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil || originURL.Host == "" {
		return false
	}
	return strings.EqualFold(originURL.Host, r.Host)
}

// BridgeHandler returns the websocket bridge as an http.Handler.
func (d *Daemon) BridgeHandler() http.Handler {
	return d.bridge.handler()
}

func (b *bridge) handler() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc(bridgePath, b.handleWS)
	return m
}

func (b *bridge) serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("sessiond: websocket listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           b.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("sessiond: websocket bridge listening", slog.String("addr", ln.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("sessiond: websocket bridge: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	b.closeAll()
	return nil
}

func (b *bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if b.d.closing.Load() {
		http.Error(w, "daemon shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ctx, cancel := context.WithCancel(b.d.ctx)
	bc := &bridgeConn{
		conn:    conn,
		send:    make(chan wsServerMessage, bridgeSendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(b.callRate, b.callBurst),
		ctx:     ctx,
		cancel:  cancel,
	}
	b.add(bc)
	defer b.remove(bc)

	go bc.writeLoop()
	bc.push(wsServerMessage{Type: "hello", Version: b.d.version})
	b.readLoop(bc)
}

func (b *bridge) readLoop(bc *bridgeConn) {
	var inflight sync.WaitGroup
	defer inflight.Wait()
	defer bc.close()
	for {
		_, payload, err := bc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				slog.Warn("sessiond: websocket closed unexpectedly", slog.Any("err", err))
			}
			return
		}
		var msg wsClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			bc.push(wsServerMessage{Type: "error", Error: &wsError{Code: string(muxerr.CodeInvalidArgument), Message: "invalid json payload"}})
			continue
		}
		switch msg.Type {
		case "ping":
			bc.push(wsServerMessage{Type: "pong", ID: msg.ID})
		case "subscribe":
			b.subscribe(bc, msg)
		case "call":
			if !bc.limiter.Allow() {
				logging.LogEvery(bc.ctx, "sessiond.bridge_rate", dropWarnInterval, slog.LevelWarn,
					"sessiond: websocket call rate limited")
				bc.push(wsServerMessage{Type: "result", ID: msg.ID, Error: &wsError{Code: codeRateLimited, Message: "too many calls"}})
				continue
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				bc.push(b.call(bc, msg))
			}()
		default:
			bc.push(wsServerMessage{Type: "error", ID: msg.ID, Error: &wsError{
				Code:    string(muxerr.CodeInvalidArgument),
				Message: fmt.Sprintf("unknown message type %q", msg.Type),
			}})
		}
	}
}

func (b *bridge) call(bc *bridgeConn, msg wsClientMessage) wsServerMessage {
	out := wsServerMessage{Type: "result", ID: msg.ID}
	caller := command.CallerFromEnv(runenv.Ambient{
		WorkspaceID: msg.Ambient.WorkspaceID,
		PaneID:      msg.Ambient.PaneID,
		SurfaceID:   msg.Ambient.SurfaceID,
	})
	res, err := b.d.dispatcher.Dispatch(bc.ctx, msg.Method, msg.Args, caller)
	if err != nil {
		out.Error = &wsError{Code: string(muxerr.CodeOf(err)), Message: err.Error()}
		return out
	}
	out.OK = true
	out.Result = res
	return out
}

func (b *bridge) subscribe(bc *bridgeConn, msg wsClientMessage) {
	for _, name := range msg.Events {
		if !mux.IsEvent(name) {
			bc.push(wsServerMessage{Type: "error", ID: msg.ID, Error: &wsError{
				Code:    string(muxerr.CodeInvalidArgument),
				Message: fmt.Sprintf("unknown event %q", name),
			}})
			return
		}
	}
	bc.filterMu.Lock()
	bc.filter = newEventFilter(msg.Events)
	bc.subscribed = true
	bc.filterMu.Unlock()
	events := msg.Events
	if len(events) == 0 {
		events = mux.EventNames()
	}
	bc.push(wsServerMessage{Type: "subscribed", ID: msg.ID, Events: events})
}

func (b *bridge) add(bc *bridgeConn) {
	b.mu.Lock()
	b.conns[bc] = struct{}{}
	b.mu.Unlock()
}

func (b *bridge) remove(bc *bridgeConn) {
	b.mu.Lock()
	delete(b.conns, bc)
	b.mu.Unlock()
}

func (b *bridge) closeAll() {
	b.mu.Lock()
	conns := make([]*bridgeConn, 0, len(b.conns))
	for bc := range b.conns {
		conns = append(conns, bc)
	}
	b.mu.Unlock()
	for _, bc := range conns {
		bc.close()
	}
}

func (b *bridge) broadcast(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for bc := range b.conns {
		if !bc.wants(event.Name) {
			continue
		}
		ev := event
		select {
		case bc.send <- wsServerMessage{Type: "event", Event: &ev}:
		case <-bc.done:
		default:
			logging.LogEvery(b.d.ctx, "sessiond.bridge_drop", dropWarnInterval, slog.LevelWarn,
				"sessiond: dropped event for slow websocket client",
				slog.String("event", event.Name))
		}
	}
}

func (bc *bridgeConn) wants(name string) bool {
	bc.filterMu.RLock()
	defer bc.filterMu.RUnlock()
	return bc.subscribed && bc.filter.allows(name)
}

// push queues a reply. Replies block for room; only events are dropped.
func (bc *bridgeConn) push(msg wsServerMessage) {
	select {
	case bc.send <- msg:
	case <-bc.done:
	}
}

func (bc *bridgeConn) writeLoop() {
	for {
		select {
		case msg := <-bc.send:
			if err := bc.conn.SetWriteDeadline(time.Now().Add(bridgeWriteTimeout)); err != nil {
				bc.close()
				return
			}
			if err := bc.conn.WriteJSON(msg); err != nil {
				bc.close()
				return
			}
		case <-bc.done:
			return
		}
	}
}

func (bc *bridgeConn) close() {
	bc.closeOnce.Do(func() {
		bc.cancel()
		close(bc.done)
		_ = bc.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = bc.conn.Close()
	})
}
