// Package ledger is the append-only evidence log behind every profile change.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/inkforge-backend/internal/data/repos"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/reconcile"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type Ledger struct {
	repo repos.EvidenceRepo
	log  *logger.Logger
}

func New(repo repos.EvidenceRepo, baseLog *logger.Logger) *Ledger {
	return &Ledger{repo: repo, log: baseLog.With("component", "EvidenceLedger")}
}

// Append writes rows inside the caller's transaction.
func (l *Ledger) Append(dbc dbctx.Context, rows []*types.Evidence) ([]*types.Evidence, error) {
	return l.repo.Create(dbc, rows)
}

func (l *Ledger) ForCharacter(ctx context.Context, characterID uuid.UUID) ([]*types.Evidence, error) {
	return l.repo.ListByCharacter(dbctx.Context{Ctx: ctx}, characterID, "")
}

// ForCharacterField narrows to one field; a parent path such as "emotional_state"
// matches its sub-fields.
func (l *Ledger) ForCharacterField(ctx context.Context, characterID uuid.UUID, field string) ([]*types.Evidence, error) {
	return l.repo.ListByCharacter(dbctx.Context{Ctx: ctx}, characterID, field)
}

func (l *Ledger) ForCharacters(ctx context.Context, characterIDs []uuid.UUID) (map[uuid.UUID][]*types.Evidence, error) {
	rows, err := l.repo.ListByCharacterIDs(dbctx.Context{Ctx: ctx}, characterIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]*types.Evidence, len(characterIDs))
	for _, row := range rows {
		out[row.CharacterID] = append(out[row.CharacterID], row)
	}
	return out, nil
}

// Rows turns reconciler changes into ledger rows sharing one timestamp, ordered by
// BatchIndex.
func Rows(characterID uuid.UUID, documentID *uuid.UUID, changes []reconcile.Change, at time.Time) []*types.Evidence {
	out := make([]*types.Evidence, 0, len(changes))
	for i, c := range changes {
		out = append(out, &types.Evidence{
			ID:              uuid.New(),
			CharacterID:     characterID,
			DocumentID:      documentID,
			Field:           c.Field,
			Snippet:         c.Snippet,
			CharacterChange: datatypes.NewJSONType(c.Delta),
			Reasoning:       c.Reasoning,
			BatchIndex:      i,
			CreatedAt:       at,
		})
	}
	return out
}

// Replay rebuilds a profile from ledger rows in chronological order.
func Replay(rows []*types.Evidence) knowledge.Profile {
	p := knowledge.Profile{
		Traits:        []string{},
		Motivations:   []string{},
		Relationships: map[string]string{},
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		d := row.CharacterChange.Data()
		p.Traits = append(p.Traits, d.Traits...)
		p.Motivations = append(p.Motivations, d.Motivations...)
		if d.EmotionalState != nil {
			if d.EmotionalState.Current != "" {
				p.EmotionalState.Current = d.EmotionalState.Current
			}
			if d.EmotionalState.Trajectory != "" {
				p.EmotionalState.Trajectory = d.EmotionalState.Trajectory
			}
		}
		if d.ArcProgression != nil {
			if d.ArcProgression.Stage != "" {
				p.ArcProgression.Stage = d.ArcProgression.Stage
			}
			if d.ArcProgression.Notes != "" {
				p.ArcProgression.Notes = d.ArcProgression.Notes
			}
		}
		for k, v := range d.Relationships {
			p.Relationships[k] = v
		}
		if d.PhysicalDescription != nil {
			p.PhysicalDescription = *d.PhysicalDescription
		}
		if d.Background != nil {
			p.Background = *d.Background
		}
	}
	return p
}
