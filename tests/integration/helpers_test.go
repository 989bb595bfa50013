//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cberkay/imposterchat/internal/ai"
	"github.com/cberkay/imposterchat/internal/config"
	"github.com/cberkay/imposterchat/internal/game"
	"github.com/cberkay/imposterchat/internal/matchmaking"
	"github.com/cberkay/imposterchat/internal/server"
	"github.com/cberkay/imposterchat/internal/settings"
	"github.com/cberkay/imposterchat/pkg/clock"
	wsmsg "github.com/cberkay/imposterchat/pkg/http/ws"
)

// startServer boots the full HTTP surface in-process with real timers and a
// fixed pairing outcome, so the flow tests need no external services.
func startServer(t *testing.T, aiMatchProbability float64) (*httptest.Server, *settings.Store) {
	t.Helper()
	logger := zerolog.Nop()

	seed := settings.Defaults()
	seed.AIMatchProbability = aiMatchProbability
	store := settings.NewStore(nil, seed, logger)

	clk := clock.New()
	factory := ai.NewFactory(store, time.Second)
	manager := ai.NewManager(factory, store, nil, logger)
	engine := matchmaking.NewEngine(store, manager, clk, matchmaking.EngineOptions{}, logger)

	hub := wsmsg.NewHub(logger)
	router := game.NewRouter(engine, manager, hub, store, clk, game.RouterOptions{}, logger)
	engine.SetTimeoutNotifier(router.NotifyTimeoutMatch)
	handler := game.NewHandler(router, hub, logger)

	cfg := &config.App{HTTPAddr: "127.0.0.1:0"}
	srv := httptest.NewServer(server.NewHTTPServer(cfg, logger, engine, store, handler, nil).Handler)
	t.Cleanup(srv.Close)
	return srv, store
}

func dialGameWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/game"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()

	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(wsmsg.NewMessage(msgType, payload)); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// waitForType reads until a message of the wanted type arrives, failing on
// error events and on timeout.
func waitForType(t *testing.T, conn *websocket.Conn, wanted string, timeout time.Duration) wsmsg.Message {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read ws message failed while waiting for %s: %v", wanted, err)
		}
		if msg.Type == wsmsg.TypeError && wanted != wsmsg.TypeError {
			t.Fatalf("unexpected error event while waiting for %s: %s", wanted, string(msg.Payload))
		}
		if msg.Type == wanted {
			return msg
		}
	}
	t.Fatalf("timeout waiting for %s", wanted)
	return wsmsg.Message{}
}

func decodeInto(t *testing.T, msg wsmsg.Message, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(msg.Payload, dest); err != nil {
		t.Fatalf("decode %s payload: %v", msg.Type, err)
	}
}

func join(t *testing.T, conn *websocket.Conn, language string) {
	t.Helper()
	sendMessage(t, conn, wsmsg.TypeJoinQueue, wsmsg.JoinQueuePayload{Language: language})
}
