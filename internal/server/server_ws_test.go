package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auxparty/internal/catalog"
	"auxparty/internal/config"

	"github.com/gorilla/websocket"
)

func newWSTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	music := []catalog.Song{{ID: "s1", Title: "Track One", AudioURL: "/music/one.mp3"}}
	srv := New(nil, config.Default(), music)
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: srv.Handler()},
	}
	ts.Start()
	return ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var env wsEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func readUntilEvent(t *testing.T, conn *websocket.Conn, event string) wsEnvelope {
	t.Helper()
	for i := 0; i < 10; i++ {
		env := readEnvelope(t, conn)
		if env.Event == event {
			return env
		}
	}
	t.Fatalf("no %s message within 10 frames", event)
	return wsEnvelope{}
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(wsEnvelope{Event: event, Data: raw}); err != nil {
		t.Fatalf("write websocket message: %v", err)
	}
}

func TestWebsocketConnectSendsState(t *testing.T) {
	ts := newWSTestServer(t)
	t.Cleanup(ts.Close)

	conn := dialWS(t, ts)
	defer conn.Close()

	env := readEnvelope(t, conn)
	if env.Event != "state" {
		t.Fatalf("expected state on connect, got %s", env.Event)
	}
}

func TestWebsocketJoinFlow(t *testing.T) {
	ts := newWSTestServer(t)
	t.Cleanup(ts.Close)

	conn := dialWS(t, ts)
	defer conn.Close()

	if env := readEnvelope(t, conn); env.Event != "state" {
		t.Fatalf("expected state on connect, got %s", env.Event)
	}

	sendEnvelope(t, conn, "join", "Ada")

	init := readUntilEvent(t, conn, "init")
	var initData struct {
		Music []catalog.Song `json:"music"`
	}
	if err := json.Unmarshal(init.Data, &initData); err != nil {
		t.Fatalf("decode init: %v", err)
	}
	if len(initData.Music) != 1 || initData.Music[0].Title != "Track One" {
		t.Fatalf("expected catalog in init, got %+v", initData.Music)
	}

	state := readUntilEvent(t, conn, "state")
	var snapshot map[string]any
	if err := json.Unmarshal(state.Data, &snapshot); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	players := snapshot["players"].(map[string]any)
	if len(players) != 1 {
		t.Fatalf("expected one player after join, got %d", len(players))
	}
}

func TestWebsocketStartVotingBroadcast(t *testing.T) {
	ts := newWSTestServer(t)
	t.Cleanup(ts.Close)

	conn := dialWS(t, ts)
	defer conn.Close()
	readEnvelope(t, conn)

	sendEnvelope(t, conn, "join", "Ada")
	readUntilEvent(t, conn, "state")

	sendEnvelope(t, conn, "startVoting", nil)

	state := readUntilEvent(t, conn, "state")
	var snapshot map[string]any
	if err := json.Unmarshal(state.Data, &snapshot); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if snapshot["voting"] != true {
		t.Fatalf("expected voting phase broadcast, got %v", snapshot["voting"])
	}

	countdown := readUntilEvent(t, conn, "countdown")
	var cd struct {
		Phase   string `json:"phase"`
		Seconds int    `json:"seconds"`
	}
	if err := json.Unmarshal(countdown.Data, &cd); err != nil {
		t.Fatalf("decode countdown: %v", err)
	}
	if cd.Phase != "voting" || cd.Seconds != config.Default().VotingSeconds {
		t.Fatalf("unexpected countdown %+v", cd)
	}
}

func TestStatsEndpointWithoutDatabase(t *testing.T) {
	ts := newWSTestServer(t)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var doc statsDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if doc.TotalVotes != 0 || len(doc.PlayerStats) != 0 || len(doc.AuxHistory) != 0 {
		t.Fatalf("expected zero-valued document, got %+v", doc)
	}
}

func TestHealthz(t *testing.T) {
	ts := newWSTestServer(t)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}
