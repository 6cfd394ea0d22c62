package server

import (
	"encoding/json"
	"time"

	"auxparty/internal/catalog"

	"github.com/rs/zerolog/log"
)

// Playback control is aux-only. Messages from anyone else are dropped here,
// silently: the transport accepts them, the session ignores them.

func (s *Server) isAux(sess *Session, id string) bool {
	return sess.Aux != nil && sess.Aux.ID == id
}

// handlePlay stamps the chosen song with the server clock and broadcasts it
// to the whole room, aux included. Receivers use the timestamp to converge on
// the position the aux started from.
func (s *Server) handlePlay(id string, data json.RawMessage) {
	var song catalog.Song
	if err := json.Unmarshal(data, &song); err != nil {
		return
	}
	now := s.clock.Now()
	var accepted bool
	_ = s.store.Update(func(sess *Session) error {
		if !s.isAux(sess, id) {
			return nil
		}
		sess.Now = &NowPlaying{Song: song, StartedAt: now, Playing: true, Volume: 1.0}
		accepted = true
		return nil
	})
	if !accepted {
		return
	}
	log.Info().Str("aux_id", id).Str("song", song.Title).Msg("playback started")
	s.hub.Broadcast("now", map[string]any{
		"song":      song,
		"timestamp": now.UnixMilli(),
	})
}

func (s *Server) handlePause(id string) {
	now := s.clock.Now()
	var accepted bool
	_ = s.store.Update(func(sess *Session) error {
		if !s.isAux(sess, id) {
			return nil
		}
		if sess.Now != nil && sess.Now.Playing {
			sess.Now.BasePos = playbackPosition(sess.Now, now)
			sess.Now.Playing = false
		}
		accepted = true
		return nil
	})
	if !accepted {
		return
	}
	s.hub.BroadcastExcept(id, "pause", nil)
}

// handleResume replaces whatever the client sent with a fresh server
// timestamp; receivers add the transit delay to their paused position so the
// pause duration is preserved exactly.
func (s *Server) handleResume(id string) {
	now := s.clock.Now()
	var accepted bool
	_ = s.store.Update(func(sess *Session) error {
		if !s.isAux(sess, id) {
			return nil
		}
		if sess.Now != nil && !sess.Now.Playing {
			sess.Now.StartedAt = now
			sess.Now.Playing = true
		}
		accepted = true
		return nil
	})
	if !accepted {
		return
	}
	s.hub.BroadcastExcept(id, "resume", map[string]any{
		"timestamp": now.UnixMilli(),
	})
}

// handleSeek relays the position verbatim. No latency compensation: the aux's
// target position is the same for every receiver regardless of when the
// message lands.
func (s *Server) handleSeek(id string, data json.RawMessage) {
	var position float64
	if err := json.Unmarshal(data, &position); err != nil {
		return
	}
	now := s.clock.Now()
	var accepted bool
	_ = s.store.Update(func(sess *Session) error {
		if !s.isAux(sess, id) {
			return nil
		}
		if sess.Now != nil {
			sess.Now.BasePos = position
			sess.Now.StartedAt = now
		}
		accepted = true
		return nil
	})
	if !accepted {
		return
	}
	s.hub.BroadcastExcept(id, "seek", position)
}

func (s *Server) handleVolume(id string, data json.RawMessage) {
	var level float64
	if err := json.Unmarshal(data, &level); err != nil {
		return
	}
	var accepted bool
	_ = s.store.Update(func(sess *Session) error {
		if !s.isAux(sess, id) {
			return nil
		}
		if sess.Now != nil {
			sess.Now.Volume = level
		}
		accepted = true
		return nil
	})
	if !accepted {
		return
	}
	s.hub.BroadcastExcept(id, "volume", level)
}

func (s *Server) handleEffect(id string, data json.RawMessage) {
	var effect string
	if err := json.Unmarshal(data, &effect); err != nil {
		return
	}
	var accepted bool
	_ = s.store.Update(func(sess *Session) error {
		if !s.isAux(sess, id) {
			return nil
		}
		if sess.Now != nil {
			if effect == "reset" {
				sess.Now.Effect = ""
			} else {
				sess.Now.Effect = effect
			}
		}
		accepted = true
		return nil
	})
	if !accepted {
		return
	}
	s.hub.BroadcastExcept(id, "effect", effect)
}

// playbackPosition extrapolates the canonical position from the last control
// message, so the snapshot can report where the room currently is.
func playbackPosition(now *NowPlaying, at time.Time) float64 {
	if now == nil {
		return 0
	}
	if !now.Playing {
		return now.BasePos
	}
	return now.BasePos + at.Sub(now.StartedAt).Seconds()
}
