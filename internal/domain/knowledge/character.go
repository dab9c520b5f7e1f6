package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Character is a named person in a project together with everything the engine has
// learned about them. NameKey is unique per project and is the only matching key.
type Character struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_character_project_name,priority:1" json:"project_id"`
	Name      string                      `gorm:"column:name;not null" json:"name"`
	NameKey   string                      `gorm:"column:name_key;not null;uniqueIndex:idx_character_project_name,priority:2" json:"-"`
	Profile   datatypes.JSONType[Profile] `gorm:"column:profile;type:jsonb" json:"profile"`
	Version   int                         `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Character) TableName() string { return "story_character" }

func (c *Character) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.NameKey == "" {
		c.NameKey = NameKey(c.Name)
	}
	return nil
}
