package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Evidence is one append-only ledger row: a single atomic profile change, the text that
// justified it and the reasoning behind it. BatchIndex keeps rows written in the same
// commit in the order the reconciler produced them.
type Evidence struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CharacterID uuid.UUID  `gorm:"type:uuid;not null;index:idx_evidence_character_time,priority:1" json:"character_id"`
	DocumentID  *uuid.UUID `gorm:"type:uuid;index" json:"document_id,omitempty"`

	Field           string                           `gorm:"column:field;not null;index" json:"field"`
	Snippet         string                           `gorm:"column:snippet;type:text;not null" json:"snippet"`
	CharacterChange datatypes.JSONType[ProfileDelta] `gorm:"column:character_change;type:jsonb" json:"character_change"`
	Reasoning       string                           `gorm:"column:reasoning;type:text" json:"inference_reasoning"`
	BatchIndex      int                              `gorm:"column:batch_index;not null;default:0;index:idx_evidence_character_time,priority:3" json:"batch_index"`

	CreatedAt time.Time `gorm:"not null;index:idx_evidence_character_time,priority:2" json:"created_at"`
}

func (Evidence) TableName() string { return "evidence" }

func (e *Evidence) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
