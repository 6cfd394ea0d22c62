package server

import (
	"time"

	"auxparty/internal/catalog"
)

const (
	phaseIdle    = "idle"
	phaseVoting  = "voting"
	phasePlaying = "playing"
	phaseRating  = "rating"
)

const (
	resultKeep        = "keep"
	resultPass        = "pass"
	resultDraw        = "draw"
	resultTieElection = "tieElection"
)

const fallbackName = "Guest"

// Participant is the in-memory roster entry for one connection. The stat
// store keeps a longer-lived record under the same id.
type Participant struct {
	ID    string
	Name  string
	Voted bool
	Rated bool
	Keep  *bool
}

// AuxRef names the participant currently holding the aux. It is kept as a
// copy rather than a roster pointer so it survives the aux disconnecting
// mid-round.
type AuxRef struct {
	ID   string
	Name string
}

// NowPlaying is the server's view of the shared audio position, extrapolated
// from the aux's last control message.
type NowPlaying struct {
	Song      catalog.Song
	BasePos   float64
	StartedAt time.Time
	Playing   bool
	Volume    float64
	Effect    string
}

// Session is the authoritative state for the single room. Exactly one phase
// holds at any time; Aux is nil only in idle or a fresh voting round. Epoch
// increments on every transition so a timer scheduled for an earlier round
// of the same phase can recognize itself as stale.
type Session struct {
	Phase        string
	Epoch        uint64
	Aux          *AuxRef
	Participants map[string]*Participant
	Ballots      map[string]string
	Now          *NowPlaying
}
