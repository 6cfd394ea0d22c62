package server

import "strings"

// normalizeName trims, truncates to maxLen and falls back to "Guest".
// Truncation counts runes so a multibyte name cannot be cut mid-character.
func normalizeName(name string, maxLen int) string {
	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > maxLen {
		name = string(runes[:maxLen])
	}
	if name == "" {
		return fallbackName
	}
	return name
}

// joinParticipant inserts or updates a roster entry. A rejoin with a known id
// only refreshes the display name; voted/rated/keep flags survive so a
// reconnect mid-phase cannot grant a second ballot or rating.
func joinParticipant(sess *Session, id, name string) *Participant {
	if existing, ok := sess.Participants[id]; ok {
		existing.Name = name
		if sess.Aux != nil && sess.Aux.ID == id {
			sess.Aux.Name = name
		}
		return existing
	}
	p := &Participant{ID: id, Name: name}
	sess.Participants[id] = p
	return p
}

// removeParticipant drops the roster entry and the participant's outgoing
// ballot. Ballots naming the departed participant are left in place; the
// tally recompute skips targets that no longer resolve.
func removeParticipant(sess *Session, id string) {
	delete(sess.Participants, id)
	delete(sess.Ballots, id)
}

// resetSession returns the room to idle, clearing the aux, all ballots and
// all per-phase participant flags.
func resetSession(sess *Session) {
	sess.Phase = phaseIdle
	sess.Epoch++
	sess.Aux = nil
	sess.Now = nil
	sess.Ballots = make(map[string]string)
	for _, p := range sess.Participants {
		p.Voted = false
		p.Rated = false
		p.Keep = nil
	}
}

// beginVoting opens a fresh ballot round. The aux is cleared: a nil aux is
// legal only in idle or a voting round that has not yet elected one.
func beginVoting(sess *Session) {
	sess.Phase = phaseVoting
	sess.Epoch++
	sess.Aux = nil
	sess.Now = nil
	sess.Ballots = make(map[string]string)
	for _, p := range sess.Participants {
		p.Voted = false
		p.Rated = false
		p.Keep = nil
	}
}

func connectedIDs(sess *Session) []string {
	ids := make([]string, 0, len(sess.Participants))
	for id := range sess.Participants {
		ids = append(ids, id)
	}
	return ids
}
