package server

import (
	"encoding/json"
	"errors"

	"auxparty/internal/db"

	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Stat store writes are best effort: a nil connection or a failed write is
// logged and the session moves on. They run after the in-memory commit and
// before the broadcast, preserving the observable ordering.

const statsRowID = 1

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (s *Server) ensureStatsRow() error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&db.Stats{ID: statsRowID}).Error
}

// upsertPlayerStat creates the durable record for a participant id, or
// refreshes the display name when the id is already known.
func (s *Server) upsertPlayerStat(id, name string) {
	if s.db == nil {
		return
	}
	record := db.PlayerStat{ID: id, Name: name}
	if err := s.db.Create(&record).Error; err != nil {
		if !isUniqueViolation(err) {
			log.Error().Err(err).Str("player_id", id).Msg("player stat create failed")
			return
		}
		if err := s.db.Model(&db.PlayerStat{}).
			Where("id = ?", id).
			Update("name", name).Error; err != nil {
			log.Error().Err(err).Str("player_id", id).Msg("player stat rename failed")
		}
	}
}

func (s *Server) recordVote(targetID string) {
	if s.db == nil {
		return
	}
	if err := s.ensureStatsRow(); err != nil {
		log.Error().Err(err).Msg("stats row init failed")
		return
	}
	if err := s.db.Model(&db.Stats{}).
		Where("id = ?", statsRowID).
		UpdateColumn("total_votes", gorm.Expr("total_votes + 1")).Error; err != nil {
		log.Error().Err(err).Msg("total votes update failed")
	}
	if err := s.db.Model(&db.PlayerStat{}).
		Where("id = ?", targetID).
		UpdateColumn("votes_received", gorm.Expr("votes_received + 1")).Error; err != nil {
		log.Error().Err(err).Str("target_id", targetID).Msg("votes received update failed")
	}
}

func (s *Server) recordRating(auxID string, keep bool) {
	if s.db == nil {
		return
	}
	if err := s.ensureStatsRow(); err != nil {
		log.Error().Err(err).Msg("stats row init failed")
		return
	}
	totalColumn, auxColumn := "total_keeps", "keeps"
	if !keep {
		totalColumn, auxColumn = "total_passes", "passes"
	}
	if err := s.db.Model(&db.Stats{}).
		Where("id = ?", statsRowID).
		UpdateColumn(totalColumn, gorm.Expr(totalColumn+" + 1")).Error; err != nil {
		log.Error().Err(err).Msg("rating totals update failed")
	}
	if err := s.db.Model(&db.PlayerStat{}).
		Where("id = ?", auxID).
		UpdateColumn(auxColumn, gorm.Expr(auxColumn+" + 1")).Error; err != nil {
		log.Error().Err(err).Str("aux_id", auxID).Msg("aux rating update failed")
	}
}

// persistAuxSelection bumps the pick counter and appends the history entry.
// Both land before the playing phase is announced; there is no transaction
// beyond that ordering.
func (s *Server) persistAuxSelection(aux *AuxRef) {
	if s.db == nil || aux == nil {
		return
	}
	if err := s.db.Model(&db.PlayerStat{}).
		Where("id = ?", aux.ID).
		UpdateColumn("times_aux", gorm.Expr("times_aux + 1")).Error; err != nil {
		log.Error().Err(err).Str("aux_id", aux.ID).Msg("times aux update failed")
	}
	entry := db.AuxHistoryEntry{
		AuxID:    aux.ID,
		AuxName:  aux.Name,
		PickedAt: s.clock.Now().UTC(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Error().Err(err).Str("aux_id", aux.ID).Msg("aux history append failed")
	}
	s.persistEvent("aux_selected", EventPayload{AuxID: aux.ID, AuxName: aux.Name})
}

func (s *Server) persistEvent(eventType string, payload EventPayload) {
	if s.db == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("event payload marshal failed")
		return
	}
	record := db.Event{
		Type:      eventType,
		Payload:   datatypes.JSON(data),
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("event append failed")
	}
}
