package db

import (
	"time"

	"gorm.io/datatypes"
)

// Stats is the single-row table holding session-wide counters.
type Stats struct {
	ID          uint  `gorm:"primaryKey"`
	TotalVotes  int64 `gorm:"not null;default:0"`
	TotalKeeps  int64 `gorm:"not null;default:0"`
	TotalPasses int64 `gorm:"not null;default:0"`
	UpdatedAt   time.Time
}

// PlayerStat outlives the in-memory participant with the same id.
type PlayerStat struct {
	ID            string `gorm:"primaryKey;size:64"`
	Name          string `gorm:"size:32;not null"`
	VotesReceived int64  `gorm:"not null;default:0"`
	TimesAux      int64  `gorm:"not null;default:0"`
	Keeps         int64  `gorm:"not null;default:0"`
	Passes        int64  `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AuxHistoryEntry is appended once per aux selection and never mutated.
type AuxHistoryEntry struct {
	ID       uint      `gorm:"primaryKey"`
	AuxID    string    `gorm:"size:64;not null;index"`
	AuxName  string    `gorm:"size:32;not null"`
	PickedAt time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
}
