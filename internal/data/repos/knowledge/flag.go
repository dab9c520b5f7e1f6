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

type CharacterFlagRepo interface {
	// CreateIgnoreDuplicates inserts flags that are not already recorded and returns how
	// many were new.
	CreateIgnoreDuplicates(dbc dbctx.Context, rows []*types.CharacterFlag) (int, error)
	ListByCharacterIDs(dbc dbctx.Context, characterIDs []uuid.UUID) ([]*types.CharacterFlag, error)
}

type characterFlagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCharacterFlagRepo(db *gorm.DB, baseLog *logger.Logger) CharacterFlagRepo {
	return &characterFlagRepo{db: db, log: baseLog.With("repo", "CharacterFlagRepo")}
}

func (r *characterFlagRepo) CreateIgnoreDuplicates(dbc dbctx.Context, rows []*types.CharacterFlag) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	filtered := make([]*types.CharacterFlag, 0, len(rows))
	for _, row := range rows {
		if row == nil || row.CharacterID == uuid.Nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.DedupeKey == "" {
			row.DedupeKey = row.Key()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		filtered = append(filtered, row)
	}
	if len(filtered) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "character_id"}, {Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(&filtered)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *characterFlagRepo) ListByCharacterIDs(dbc dbctx.Context, characterIDs []uuid.UUID) ([]*types.CharacterFlag, error) {
	var out []*types.CharacterFlag
	if len(characterIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("character_id IN ?", characterIDs).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
