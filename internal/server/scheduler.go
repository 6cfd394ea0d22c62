package server

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
)

// errStalePhase marks a timer that fired after the session already moved on.
var errStalePhase = errors.New("phase already advanced")

// schedulePhaseTimer arms the deadline for the phase that was just entered.
// The callback re-validates (phase, epoch) before acting, so a timer left
// over from an earlier round is a harmless no-op; stopping the previous
// timer here is only tidiness.
func (s *Server) schedulePhaseTimer(phase string, epoch uint64, d time.Duration) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if s.phaseTimer != nil {
		s.phaseTimer.Stop()
	}
	s.phaseTimer = s.clock.AfterFunc(d, func() {
		s.phaseExpired(phase, epoch)
	})
}

func (s *Server) phaseExpired(phase string, epoch uint64) {
	switch phase {
	case phaseVoting:
		s.endVoting(epoch)
	case phasePlaying:
		s.startRating(epoch)
	case phaseRating:
		s.decideResult(epoch)
	}
}

// StartVoting begins a ballot round from idle. Requests arriving in any
// other phase are dropped.
func (s *Server) StartVoting() {
	var epoch uint64
	err := s.store.Update(func(sess *Session) error {
		if sess.Phase != phaseIdle {
			return errStalePhase
		}
		beginVoting(sess)
		epoch = sess.Epoch
		return nil
	})
	if err != nil {
		return
	}
	log.Info().Msg("voting started")
	s.broadcastState()
	s.broadcastCountdown(phaseVoting, s.cfg.VotingSeconds)
	s.schedulePhaseTimer(phaseVoting, epoch, time.Duration(s.cfg.VotingSeconds)*time.Second)
}

// endVoting runs the aux selection once, at the voting deadline. A single
// leader wins outright; a tie is settled by lottery and announced as one; an
// empty ballot box falls back to a lottery over everyone connected so the
// session can proceed without participation. An empty room resets to idle.
func (s *Server) endVoting(epoch uint64) {
	var (
		chosen *AuxRef
		tie    bool
		next   uint64
	)
	err := s.store.Update(func(sess *Session) error {
		if sess.Phase != phaseVoting || sess.Epoch != epoch {
			return errStalePhase
		}
		winners := voteWinners(sess)
		var chosenID string
		switch {
		case len(winners) == 1:
			chosenID = winners[0]
		case len(winners) > 1:
			chosenID = winners[rand.IntN(len(winners))]
			tie = true
		default:
			if ids := connectedIDs(sess); len(ids) > 0 {
				chosenID = ids[rand.IntN(len(ids))]
			}
		}
		if chosenID == "" {
			resetSession(sess)
			return nil
		}
		sess.Aux = &AuxRef{ID: chosenID, Name: sess.Participants[chosenID].Name}
		sess.Now = nil
		sess.Phase = phasePlaying
		sess.Epoch++
		chosen = sess.Aux
		next = sess.Epoch
		return nil
	})
	if err != nil {
		log.Debug().Uint64("epoch", epoch).Msg("stale voting deadline ignored")
		return
	}
	if chosen == nil {
		log.Info().Msg("voting ended with empty room, session idle")
		s.broadcastState()
		return
	}
	// The pick counter and history entry land before the playing phase is
	// announced, so a crash in between cannot skip the audit trail.
	s.persistAuxSelection(chosen)
	if tie {
		log.Info().Str("aux_id", chosen.ID).Msg("vote tie resolved by lottery")
		s.broadcastResult(resultTieElection)
	}
	log.Info().Str("aux_id", chosen.ID).Str("aux_name", chosen.Name).Msg("aux selected")
	s.broadcastState()
	s.broadcastCountdown(phasePlaying, s.cfg.PlayingSeconds)
	s.schedulePhaseTimer(phasePlaying, next, time.Duration(s.cfg.PlayingSeconds)*time.Second)
}

// startRating moves playing to rating. The aux is auto-marked rated so it
// cannot judge its own pick; everyone else has rating state cleared. The aux
// may have disconnected mid-playing; rating proceeds regardless and counts
// connected raters only.
func (s *Server) startRating(epoch uint64) {
	var next uint64
	err := s.store.Update(func(sess *Session) error {
		if sess.Phase != phasePlaying || sess.Epoch != epoch {
			return errStalePhase
		}
		sess.Phase = phaseRating
		sess.Epoch++
		for id, p := range sess.Participants {
			p.Rated = sess.Aux != nil && sess.Aux.ID == id
			if !p.Rated {
				p.Keep = nil
			}
		}
		next = sess.Epoch
		return nil
	})
	if err != nil {
		log.Debug().Uint64("epoch", epoch).Msg("stale playing deadline ignored")
		return
	}
	log.Info().Msg("rating started")
	s.broadcastState()
	s.broadcastCountdown(phaseRating, s.cfg.RatingSeconds)
	s.schedulePhaseTimer(phaseRating, next, time.Duration(s.cfg.RatingSeconds)*time.Second)
}

// decideResult tallies the rating round and announces the outcome, then
// lets it sit on screen for the result delay before routing: keep and draw
// send the same aux back to playing, pass opens a new election. The phase
// stays rating during the delay, so a last-moment rate still lands.
func (s *Server) decideResult(epoch uint64) {
	var result string
	err := s.store.Update(func(sess *Session) error {
		if sess.Phase != phaseRating || sess.Epoch != epoch {
			return errStalePhase
		}
		keeps, passes := countRatings(sess)
		result = ratingResult(keeps, passes)
		return nil
	})
	if err != nil {
		log.Debug().Uint64("epoch", epoch).Msg("stale rating deadline ignored")
		return
	}
	log.Info().Str("result", result).Msg("rating decided")
	s.persistEvent("rating_decided", EventPayload{Result: result})
	s.broadcastResult(result)

	delay := time.Duration(s.cfg.ResultDelayMillis) * time.Millisecond
	s.timersMu.Lock()
	if s.resultTimer != nil {
		s.resultTimer.Stop()
	}
	s.resultTimer = s.clock.AfterFunc(delay, func() {
		s.applyResult(result, epoch)
	})
	s.timersMu.Unlock()
}

func (s *Server) applyResult(result string, epoch uint64) {
	var (
		nextPhase string
		next      uint64
	)
	err := s.store.Update(func(sess *Session) error {
		if sess.Phase != phaseRating || sess.Epoch != epoch {
			return errStalePhase
		}
		if result == resultPass {
			beginVoting(sess)
			nextPhase = phaseVoting
		} else {
			sess.Phase = phasePlaying
			sess.Epoch++
			nextPhase = phasePlaying
		}
		next = sess.Epoch
		return nil
	})
	if err != nil {
		log.Debug().Uint64("epoch", epoch).Msg("stale result delay ignored")
		return
	}
	s.broadcastState()
	if nextPhase == phaseVoting {
		s.broadcastCountdown(phaseVoting, s.cfg.VotingSeconds)
		s.schedulePhaseTimer(phaseVoting, next, time.Duration(s.cfg.VotingSeconds)*time.Second)
		return
	}
	s.broadcastCountdown(phasePlaying, s.cfg.PlayingSeconds)
	s.schedulePhaseTimer(phasePlaying, next, time.Duration(s.cfg.PlayingSeconds)*time.Second)
}
