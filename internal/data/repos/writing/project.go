package writing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, row *types.Project) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Project, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Project, error)
	// DeleteCascade removes the project with its documents, characters, evidence and flags.
	DeleteCascade(dbc dbctx.Context, id uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, row *types.Project) error {
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

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Project
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *projectRepo) GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Project, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var out []*types.Project
	if err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *projectRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Project, error) {
	var out []*types.Project
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) DeleteCascade(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		characters := tx.Table("story_character").Select("id").Where("project_id = ?", id)
		if err := tx.Exec(`DELETE FROM evidence WHERE character_id IN (?)`, characters).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM character_flag WHERE character_id IN (?)`, characters).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&types.Character{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&types.Document{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&types.Project{}).Error
	})
}
