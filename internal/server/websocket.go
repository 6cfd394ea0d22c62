package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// wsEnvelope is the wire frame in both directions.
type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type wsHub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[string]*websocket.Conn)}
}

func (h *wsHub) Add(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = conn
}

func (h *wsHub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.conns[id]; ok {
		delete(h.conns, id)
		_ = conn.Close()
	}
}

func marshalEnvelope(event string, data any) ([]byte, bool) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}
	payload, err := json.Marshal(wsEnvelope{Event: event, Data: raw})
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (h *wsHub) Send(id string, event string, data any) {
	h.mu.Lock()
	conn, ok := h.conns[id]
	h.mu.Unlock()
	if !ok {
		return
	}
	payload, ok := marshalEnvelope(event, data)
	if !ok {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.Remove(id)
	}
}

func (h *wsHub) Broadcast(event string, data any) {
	h.broadcast(event, data, "")
}

// BroadcastExcept sends to everyone but the named connection; used for relays
// where the sender already applied the action locally.
func (h *wsHub) BroadcastExcept(exceptID string, event string, data any) {
	h.broadcast(event, data, exceptID)
}

func (h *wsHub) broadcast(event string, data any, exceptID string) {
	h.mu.Lock()
	ids := make([]string, 0, len(h.conns))
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for id, conn := range h.conns {
		if id == exceptID {
			continue
		}
		ids = append(ids, id)
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	payload, ok := marshalEnvelope(event, data)
	if !ok {
		return
	}
	for i, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.Remove(ids[i])
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.NewString()
	log.Info().Str("player_id", id).Str("remote", r.RemoteAddr).Msg("ws connected")
	s.hub.Add(id, conn)
	s.sendState(id)
	go s.readWS(id, conn)
}

func (s *Server) readWS(id string, conn *websocket.Conn) {
	defer func() {
		s.hub.Remove(id)
		s.handleDisconnect(id)
	}()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Info().Str("player_id", id).Err(err).Msg("ws disconnected")
			return
		}
		var env wsEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			continue
		}
		s.dispatch(id, env)
	}
}

// dispatch routes one inbound frame. Unknown events and malformed payloads
// are dropped without a reply.
func (s *Server) dispatch(id string, env wsEnvelope) {
	switch env.Event {
	case "join":
		var name string
		_ = json.Unmarshal(env.Data, &name)
		s.handleJoin(id, name)
	case "cursor":
		s.handleCursor(id, env.Data)
	case "startVoting":
		s.StartVoting()
	case "vote":
		var targetID string
		if err := json.Unmarshal(env.Data, &targetID); err != nil {
			return
		}
		s.handleVote(id, targetID)
	case "rate":
		var decision string
		if err := json.Unmarshal(env.Data, &decision); err != nil {
			return
		}
		s.handleRate(id, decision)
	case "play":
		s.handlePlay(id, env.Data)
	case "pause":
		s.handlePause(id)
	case "resume":
		s.handleResume(id)
	case "seek":
		s.handleSeek(id, env.Data)
	case "volume":
		s.handleVolume(id, env.Data)
	case "effect":
		s.handleEffect(id, env.Data)
	}
}
