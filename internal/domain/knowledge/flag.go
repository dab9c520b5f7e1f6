package knowledge

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const FlagStageRegression = "stage_regression"

// CharacterFlag is a candidate consistency issue the reconciler could not apply. Flags stay
// open and are reported by every consistency check that covers the character.
type CharacterFlag struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CharacterID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_character_flag_key,priority:1" json:"character_id"`
	DocumentID  *uuid.UUID `gorm:"type:uuid" json:"document_id,omitempty"`
	Kind        string     `gorm:"column:kind;not null" json:"kind"`
	Snippet     string     `gorm:"column:snippet;type:text" json:"snippet"`
	FromStage   string     `gorm:"column:from_stage" json:"from_stage"`
	ToStage     string     `gorm:"column:to_stage" json:"to_stage"`
	DedupeKey   string     `gorm:"column:dedupe_key;not null;uniqueIndex:idx_character_flag_key,priority:2" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CharacterFlag) TableName() string { return "character_flag" }

func (f *CharacterFlag) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.DedupeKey == "" {
		f.DedupeKey = f.Key()
	}
	return nil
}

// Key identifies a flag independent of when it was raised.
func (f CharacterFlag) Key() string {
	doc := ""
	if f.DocumentID != nil {
		doc = f.DocumentID.String()
	}
	return strings.Join([]string{doc, f.Kind, f.FromStage, f.ToStage}, "|")
}
