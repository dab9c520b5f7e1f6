package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/inkforge-backend/internal/data/repos/knowledge"
	"github.com/yungbote/inkforge-backend/internal/data/repos/writing"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type ProjectRepo = writing.ProjectRepo
type DocumentRepo = writing.DocumentRepo

type CharacterRepo = knowledge.CharacterRepo
type EvidenceRepo = knowledge.EvidenceRepo
type CharacterFlagRepo = knowledge.CharacterFlagRepo

// Set bundles every table repo so wiring code can pass them around together.
type Set struct {
	Project   ProjectRepo
	Document  DocumentRepo
	Character CharacterRepo
	Evidence  EvidenceRepo
	Flag      CharacterFlagRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Project:   writing.NewProjectRepo(db, log),
		Document:  writing.NewDocumentRepo(db, log),
		Character: knowledge.NewCharacterRepo(db, log),
		Evidence:  knowledge.NewEvidenceRepo(db, log),
		Flag:      knowledge.NewCharacterFlagRepo(db, log),
	}
}
