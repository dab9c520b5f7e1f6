package knowledge

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

// EvidenceRepo is append-only. Rows leave the table only with their character.
type EvidenceRepo interface {
	Create(dbc dbctx.Context, rows []*types.Evidence) ([]*types.Evidence, error)
	ListByCharacter(dbc dbctx.Context, characterID uuid.UUID, field string) ([]*types.Evidence, error)
	ListByCharacterIDs(dbc dbctx.Context, characterIDs []uuid.UUID) ([]*types.Evidence, error)
}

type evidenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvidenceRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceRepo {
	return &evidenceRepo{db: db, log: baseLog.With("repo", "EvidenceRepo")}
}

func (r *evidenceRepo) Create(dbc dbctx.Context, rows []*types.Evidence) ([]*types.Evidence, error) {
	if len(rows) == 0 {
		return []*types.Evidence{}, nil
	}
	now := time.Now().UTC()
	filtered := make([]*types.Evidence, 0, len(rows))
	for _, row := range rows {
		if row == nil || row.CharacterID == uuid.Nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		filtered = append(filtered, row)
	}
	if len(filtered) == 0 {
		return filtered, nil
	}
	if err := dbc.DB(r.db).Create(&filtered).Error; err != nil {
		return nil, err
	}
	return filtered, nil
}

func (r *evidenceRepo) ListByCharacter(dbc dbctx.Context, characterID uuid.UUID, field string) ([]*types.Evidence, error) {
	var out []*types.Evidence
	if characterID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("character_id = ?", characterID)
	if field = strings.TrimSpace(field); field != "" {
		q = q.Where("(field = ? OR field LIKE ?)", field, field+".%")
	}
	if err := q.Order("created_at ASC, batch_index ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *evidenceRepo) ListByCharacterIDs(dbc dbctx.Context, characterIDs []uuid.UUID) ([]*types.Evidence, error) {
	var out []*types.Evidence
	if len(characterIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("character_id IN ?", characterIDs).
		Order("created_at ASC, batch_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
