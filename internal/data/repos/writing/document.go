package writing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, row *types.Document) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	// GetByIDForUser resolves a document only when its project belongs to userID.
	GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Document, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error)
	UpdateContent(dbc dbctx.Context, id uuid.UUID, content datatypes.JSON, wordCount int) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, row *types.Document) error {
	if row == nil {
		return nil
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if len(row.Content) == 0 {
		row.Content = datatypes.JSON([]byte(`{"type":"doc","content":[]}`))
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Document
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *documentRepo) GetByIDForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.Document, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var out []*types.Document
	if err := dbc.DB(r.db).
		Where("id = ? AND project_id IN (?)", id,
			r.db.Table("project").Select("id").Where("user_id = ?", userID)).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *documentRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Document, error) {
	var out []*types.Document
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) UpdateContent(dbc dbctx.Context, id uuid.UUID, content datatypes.JSON, wordCount int) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":    content,
			"word_count": wordCount,
			"updated_at": time.Now().UTC(),
		}).Error
}
