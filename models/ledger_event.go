package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEvent is the journal row of one ledger event. Seq is assigned by the
// ledger, so the primary key never auto-increments.
type LedgerEvent struct {
	Seq        uint64     `gorm:"primaryKey;autoIncrement:false"`
	Kind       string     `gorm:"not null;size:20"`
	EventID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	GroupID    *uuid.UUID `gorm:"type:uuid;index"`
	Payload    string     `gorm:"type:jsonb;not null"`
	RecordedAt time.Time  `gorm:"not null"`
}
