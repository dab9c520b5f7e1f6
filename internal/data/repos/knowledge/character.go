package knowledge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type CharacterRepo interface {
	Create(dbc dbctx.Context, row *types.Character) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Character, error)
	GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Character, error)
	// GetByNameKeyForUpdate locks the row for the rest of the transaction where the
	// database supports row locks.
	GetByNameKeyForUpdate(dbc dbctx.Context, projectID uuid.UUID, nameKey string) (*types.Character, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Character, error)
	DeleteCascade(dbc dbctx.Context, id uuid.UUID) error
}

type characterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCharacterRepo(db *gorm.DB, baseLog *logger.Logger) CharacterRepo {
	return &characterRepo{db: db, log: baseLog.With("repo", "CharacterRepo")}
}

func (r *characterRepo) Create(dbc dbctx.Context, row *types.Character) error {
	if row == nil {
		return nil
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return dbc.DB(r.db).Create(row).Error
}

func (r *characterRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Character, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("id = ?", id))
}

func (r *characterRepo) GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Character, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("id = ? AND project_id IN (?)", id,
		r.db.Table("project").Select("id").Where("user_id = ?", userID)))
}

func (r *characterRepo) GetByNameKeyForUpdate(dbc dbctx.Context, projectID uuid.UUID, nameKey string) (*types.Character, error) {
	if projectID == uuid.Nil || nameKey == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ? AND name_key = ?", projectID, nameKey))
}

func (r *characterRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Character, error) {
	var out []*types.Character
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("project_id = ?", projectID).
		Order("name_key ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *characterRepo) DeleteCascade(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("character_id = ?", id).Delete(&types.Evidence{}).Error; err != nil {
			return err
		}
		if err := tx.Where("character_id = ?", id).Delete(&types.CharacterFlag{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&types.Character{}).Error
	})
}

func (r *characterRepo) first(q *gorm.DB) (*types.Character, error) {
	var out []*types.Character
	if err := q.Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
