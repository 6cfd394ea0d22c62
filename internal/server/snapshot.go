package server

// snapshotSession is the only path from session state to the wire. Every
// state-changing operation ends by broadcasting this view, so the format
// cannot drift between call sites.
func snapshotSession(sess *Session, positionAt func(*NowPlaying) float64) map[string]any {
	players := make(map[string]any, len(sess.Participants))
	for id, p := range sess.Participants {
		entry := map[string]any{
			"id":    p.ID,
			"name":  p.Name,
			"voted": p.Voted,
			"rated": p.Rated,
		}
		if p.Keep != nil {
			entry["keep"] = *p.Keep
		} else {
			entry["keep"] = nil
		}
		players[id] = entry
	}

	votes := make(map[string]string, len(sess.Ballots))
	for voterID, targetID := range sess.Ballots {
		votes[voterID] = targetID
	}

	var aux any
	if sess.Aux != nil {
		aux = map[string]any{
			"id":   sess.Aux.ID,
			"name": sess.Aux.Name,
		}
	}

	snapshot := map[string]any{
		"voting":     sess.Phase == phaseVoting,
		"playing":    sess.Phase == phasePlaying,
		"rating":     sess.Phase == phaseRating,
		"aux":        aux,
		"players":    players,
		"voteCounts": voteCounts(sess),
		"votes":      votes,
	}
	if sess.Now != nil {
		snapshot["nowPlaying"] = map[string]any{
			"song":     sess.Now.Song,
			"position": positionAt(sess.Now),
			"paused":   !sess.Now.Playing,
			"volume":   sess.Now.Volume,
			"effect":   sess.Now.Effect,
		}
	}
	return snapshot
}

func (s *Server) snapshot() map[string]any {
	var snapshot map[string]any
	s.store.View(func(sess *Session) {
		snapshot = snapshotSession(sess, func(now *NowPlaying) float64 {
			return playbackPosition(now, s.clock.Now())
		})
	})
	return snapshot
}

func (s *Server) broadcastState() {
	s.hub.Broadcast("state", s.snapshot())
}

func (s *Server) sendState(id string) {
	s.hub.Send(id, "state", s.snapshot())
}

func (s *Server) broadcastCountdown(phase string, seconds int) {
	s.hub.Broadcast("countdown", map[string]any{
		"phase":   phase,
		"seconds": seconds,
	})
}

func (s *Server) broadcastResult(result string) {
	s.hub.Broadcast("result", result)
}
