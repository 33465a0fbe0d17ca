package sessiond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pweiskircher/cmux/internal/command"
)

type wsTestMessage struct {
	Type   string         `json:"type"`
	ID     uint64         `json:"id"`
	OK     bool           `json:"ok"`
	Result map[string]any `json:"result"`
	Error  *wsError       `json:"error"`
	Event  *Event         `json:"event"`
	Events []string       `json:"events"`
}

func dialBridge(t *testing.T, d *Daemon) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(d.BridgeHandler())
	t.Cleanup(srv.Close)
	url := "ws://" + strings.TrimPrefix(srv.URL, "http://") + bridgePath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	hello := readWS(t, conn)
	if hello.Type != "hello" {
		t.Fatalf("first message = %+v", hello)
	}
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) wsTestMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var msg wsTestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal %s: %v", data, err)
	}
	return msg
}

func writeWS(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

// readUntil skips messages until one of the given type and id arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, id uint64) (wsTestMessage, []wsTestMessage) {
	t.Helper()
	var skipped []wsTestMessage
	for i := 0; i < 32; i++ {
		msg := readWS(t, conn)
		if msg.Type == typ && msg.ID == id {
			return msg, skipped
		}
		skipped = append(skipped, msg)
	}
	t.Fatalf("no %s message with id %d", typ, id)
	return wsTestMessage{}, nil
}

func TestBridgeCallAndEvents(t *testing.T) {
	d, _ := startTestDaemon(t)
	conn := dialBridge(t, d)

	writeWS(t, conn, map[string]any{"type": "subscribe", "id": 1, "events": []string{"workspace-created"}})
	sub, _ := readUntil(t, conn, "subscribed", 1)
	if len(sub.Events) != 1 || sub.Events[0] != "workspace-created" {
		t.Fatalf("subscribed = %+v", sub)
	}

	writeWS(t, conn, map[string]any{"type": "call", "id": 2, "method": "workspace.create", "args": map[string]any{"title": "gui"}})
	res, skipped := readUntil(t, conn, "result", 2)
	if !res.OK || res.Result[command.KeyWorkspaceRef] != "workspace:1" {
		t.Fatalf("result = %+v", res)
	}

	seen := false
	for _, msg := range skipped {
		if msg.Type == "event" && msg.Event != nil && msg.Event.Name == "workspace-created" {
			seen = true
		}
	}
	if !seen {
		msg := readWS(t, conn)
		if msg.Type != "event" || msg.Event == nil || msg.Event.Name != "workspace-created" {
			t.Fatalf("expected workspace-created event, got %+v", msg)
		}
	}
}

func TestBridgeErrorsCarryCodes(t *testing.T) {
	d, _ := startTestDaemon(t)
	conn := dialBridge(t, d)

	writeWS(t, conn, map[string]any{"type": "call", "id": 5, "method": "display-popup"})
	res, _ := readUntil(t, conn, "result", 5)
	if res.OK || res.Error == nil || res.Error.Code != "not_supported" {
		t.Fatalf("result = %+v", res)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	bad := readWS(t, conn)
	if bad.Type != "error" || bad.Error == nil || bad.Error.Code != "invalid_argument" {
		t.Fatalf("bad payload reply = %+v", bad)
	}

	writeWS(t, conn, map[string]any{"type": "ping", "id": 6})
	if pong, _ := readUntil(t, conn, "pong", 6); pong.Type != "pong" {
		t.Fatalf("pong = %+v", pong)
	}
}

func TestBridgeAmbientTargets(t *testing.T) {
	d, _ := startTestDaemon(t)
	conn := dialBridge(t, d)

	writeWS(t, conn, map[string]any{"type": "call", "id": 1, "method": "workspace.create"})
	readUntil(t, conn, "result", 1)
	writeWS(t, conn, map[string]any{"type": "call", "id": 2, "method": "workspace.create"})
	second, _ := readUntil(t, conn, "result", 2)
	wsID, _ := second.Result[command.KeyWorkspaceID].(string)

	writeWS(t, conn, map[string]any{
		"type":    "call",
		"id":      3,
		"method":  "workspace.rename",
		"args":    map[string]any{"title": "from-gui"},
		"ambient": map[string]any{"workspace_id": wsID},
	})
	renamed, _ := readUntil(t, conn, "result", 3)
	if !renamed.OK || renamed.Result[command.KeyWorkspaceID] != wsID {
		t.Fatalf("rename = %+v", renamed)
	}
}

func TestBridgeRateLimitsCalls(t *testing.T) {
	d, _ := startTestDaemon(t)
	d.bridge.callRate = 1
	d.bridge.callBurst = 2
	conn := dialBridge(t, d)

	total := 10
	for i := 1; i <= total; i++ {
		writeWS(t, conn, map[string]any{"type": "call", "id": i, "method": "system.ping"})
	}
	limited := 0
	for i := 0; i < total; i++ {
		msg := readWS(t, conn)
		if msg.Error != nil && msg.Error.Code == codeRateLimited {
			limited++
		}
	}
	if limited == 0 {
		t.Fatalf("expected some calls to be rate limited")
	}
}

func TestBridgeRejectsForeignOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:7000/ws", nil)
	req.Host = "127.0.0.1:7000"
	if !allowWSOrigin(req) {
		t.Fatalf("empty origin rejected")
	}
	req.Header.Set("Origin", "http://127.0.0.1:7000")
	if !allowWSOrigin(req) {
		t.Fatalf("same-host origin rejected")
	}
	req.Header.Set("Origin", "https://evil.example")
	if allowWSOrigin(req) {
		t.Fatalf("foreign origin accepted")
	}
}
