package server

import "sort"

// castBallot records a vote during the voting phase. It reports false without
// side effects when the phase is wrong, the voter is unknown or has already
// voted, or the target is not connected. Out-of-turn votes are expected noise
// from network races, not errors.
func castBallot(sess *Session, voterID, targetID string) bool {
	if sess.Phase != phaseVoting {
		return false
	}
	voter, ok := sess.Participants[voterID]
	if !ok || voter.Voted {
		return false
	}
	if _, ok := sess.Participants[targetID]; !ok {
		return false
	}
	sess.Ballots[voterID] = targetID
	voter.Voted = true
	return true
}

// voteCounts recomputes the tally from the ballot set. Only ballots whose
// target still resolves to a connected participant count; recompute-on-read
// keeps the tally from drifting as voters and targets come and go.
func voteCounts(sess *Session) map[string]int {
	counts := make(map[string]int)
	for _, targetID := range sess.Ballots {
		if _, ok := sess.Participants[targetID]; !ok {
			continue
		}
		counts[targetID]++
	}
	return counts
}

// voteWinners returns every target id holding the maximum count, sorted for
// deterministic iteration. Zero ballots means an empty winner set.
func voteWinners(sess *Session) []string {
	counts := voteCounts(sess)
	max := 0
	for _, count := range counts {
		if count > max {
			max = count
		}
	}
	if max == 0 {
		return nil
	}
	winners := make([]string, 0, len(counts))
	for id, count := range counts {
		if count == max {
			winners = append(winners, id)
		}
	}
	sort.Strings(winners)
	return winners
}

// countRatings tallies keep/pass among participants who rated this round.
// The aux never appears here: it is auto-marked rated with no keep value.
func countRatings(sess *Session) (keeps, passes int) {
	for _, p := range sess.Participants {
		if !p.Rated || p.Keep == nil {
			continue
		}
		if *p.Keep {
			keeps++
		} else {
			passes++
		}
	}
	return keeps, passes
}

// ratingResult favors the incumbent: a draw, including nobody rating at all,
// keeps the current aux for another round. Only a strict pass majority
// forces a new election.
func ratingResult(keeps, passes int) string {
	switch {
	case keeps > passes:
		return resultKeep
	case passes > keeps:
		return resultPass
	default:
		return resultDraw
	}
}
