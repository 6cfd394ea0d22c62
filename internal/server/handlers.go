package server

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// handleJoin upserts the participant under a normalized display name and
// answers with the song catalog. The stat store upsert is best effort.
func (s *Server) handleJoin(id string, rawName string) {
	name := normalizeName(rawName, s.cfg.NameMaxLength)
	_ = s.store.Update(func(sess *Session) error {
		joinParticipant(sess, id, name)
		return nil
	})
	s.upsertPlayerStat(id, name)
	log.Info().Str("player_id", id).Str("name", name).Msg("player joined")
	s.hub.Send(id, "init", map[string]any{"music": s.music})
	s.broadcastState()
}

// handleDisconnect removes the participant. It never errors: disconnects of
// unknown ids are as normal as any other network noise.
func (s *Server) handleDisconnect(id string) {
	_ = s.store.Update(func(sess *Session) error {
		removeParticipant(sess, id)
		return nil
	})
	log.Info().Str("player_id", id).Msg("player disconnected")
	s.broadcastState()
}

func (s *Server) handleVote(voterID, targetID string) {
	var accepted bool
	_ = s.store.Update(func(sess *Session) error {
		accepted = castBallot(sess, voterID, targetID)
		return nil
	})
	if !accepted {
		return
	}
	s.recordVote(targetID)
	log.Info().Str("voter_id", voterID).Str("target_id", targetID).Msg("vote cast")
	s.broadcastState()
}

// handleRate records a keep/pass judgment. The aux cannot rate its own pick,
// and nobody rates twice; offending messages are dropped.
func (s *Server) handleRate(id, decision string) {
	if decision != "keep" && decision != "pass" {
		return
	}
	keep := decision == "keep"
	var (
		accepted bool
		auxID    string
	)
	_ = s.store.Update(func(sess *Session) error {
		if sess.Phase != phaseRating || sess.Aux == nil {
			return nil
		}
		p, ok := sess.Participants[id]
		if !ok || p.Rated || sess.Aux.ID == id {
			return nil
		}
		p.Rated = true
		value := keep
		p.Keep = &value
		auxID = sess.Aux.ID
		accepted = true
		return nil
	})
	if !accepted {
		return
	}
	s.recordRating(auxID, keep)
	log.Info().Str("player_id", id).Str("decision", decision).Msg("rating recorded")
	s.broadcastState()
}

// handleCursor relays an ephemeral cursor position to everyone else. Nothing
// is stored; unjoined connections are ignored.
func (s *Server) handleCursor(id string, data json.RawMessage) {
	var pos struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &pos); err != nil {
		return
	}
	var name string
	s.store.View(func(sess *Session) {
		if p, ok := sess.Participants[id]; ok {
			name = p.Name
		}
	})
	if name == "" {
		return
	}
	s.hub.BroadcastExcept(id, "cursor", map[string]any{
		"id":   id,
		"name": name,
		"x":    pos.X,
		"y":    pos.Y,
	})
}
