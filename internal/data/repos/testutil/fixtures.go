package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "The Salt Road",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, content string) *types.Document {
	tb.Helper()
	if content == "" {
		content = `{"type":"doc","content":[]}`
	}
	d := &types.Document{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     "Chapter",
		Content:   datatypes.JSON([]byte(content)),
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedCharacter(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string, profile knowledge.Profile) *types.Character {
	tb.Helper()
	c := &types.Character{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      name,
		NameKey:   knowledge.NameKey(name),
		Profile:   datatypes.NewJSONType(profile),
		Version:   1,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed character: %v", err)
	}
	return c
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
