package server

import (
	"net/http"

	"auxparty/internal/db"

	"github.com/rs/zerolog/log"
)

type playerStatsDoc struct {
	Name          string `json:"name"`
	VotesReceived int64  `json:"votesReceived"`
	TimesAux      int64  `json:"timesAux"`
	Keeps         int64  `json:"keeps"`
	Passes        int64  `json:"passes"`
}

type auxHistoryDoc struct {
	AuxID     string `json:"auxId"`
	AuxName   string `json:"auxName"`
	Timestamp int64  `json:"timestamp"`
}

type statsDoc struct {
	TotalVotes  int64                     `json:"totalVotes"`
	TotalKeeps  int64                     `json:"totalKeeps"`
	TotalPasses int64                     `json:"totalPasses"`
	PlayerStats map[string]playerStatsDoc `json:"playerStats"`
	AuxHistory  []auxHistoryDoc           `json:"auxHistory"`
}

// handleStats assembles the persisted stat document. Without a database the
// zero-valued document is served, mirroring the store's absent-key default.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	doc := statsDoc{
		PlayerStats: make(map[string]playerStatsDoc),
		AuxHistory:  make([]auxHistoryDoc, 0),
	}
	if s.db == nil {
		writeJSON(w, http.StatusOK, doc)
		return
	}

	var totals db.Stats
	if err := s.db.Where("id = ?", statsRowID).Find(&totals).Error; err != nil {
		log.Error().Err(err).Msg("stats totals read failed")
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	doc.TotalVotes = totals.TotalVotes
	doc.TotalKeeps = totals.TotalKeeps
	doc.TotalPasses = totals.TotalPasses

	var players []db.PlayerStat
	if err := s.db.Find(&players).Error; err != nil {
		log.Error().Err(err).Msg("player stats read failed")
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	for _, p := range players {
		doc.PlayerStats[p.ID] = playerStatsDoc{
			Name:          p.Name,
			VotesReceived: p.VotesReceived,
			TimesAux:      p.TimesAux,
			Keeps:         p.Keeps,
			Passes:        p.Passes,
		}
	}

	var history []db.AuxHistoryEntry
	if err := s.db.Order("id asc").Find(&history).Error; err != nil {
		log.Error().Err(err).Msg("aux history read failed")
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	for _, entry := range history {
		doc.AuxHistory = append(doc.AuxHistory, auxHistoryDoc{
			AuxID:     entry.AuxID,
			AuxName:   entry.AuxName,
			Timestamp: entry.PickedAt.UnixMilli(),
		})
	}

	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
