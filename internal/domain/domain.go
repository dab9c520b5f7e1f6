package domain

import (
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/domain/writing"
)

type Project = writing.Project
type Document = writing.Document

type Character = knowledge.Character
type Profile = knowledge.Profile
type ProfileDelta = knowledge.ProfileDelta
type Evidence = knowledge.Evidence
type CharacterFlag = knowledge.CharacterFlag
type Observation = knowledge.Observation
type ConsistencyIssue = knowledge.ConsistencyIssue

// Models lists every persisted table in migration order.
func Models() []any {
	return []any{
		&writing.Project{},
		&writing.Document{},
		&knowledge.Character{},
		&knowledge.Evidence{},
		&knowledge.CharacterFlag{},
	}
}
