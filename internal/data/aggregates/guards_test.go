package aggregates

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/inkforge-backend/internal/domain/aggregates"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
)

func TestAdvanceVersion(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	p := testutil.SeedProject(t, ctx, tx, uuid.New())
	c := testutil.SeedCharacter(t, ctx, tx, p.ID, "Maren", knowledge.Profile{})

	if err := advanceVersion(dbc, nil, characterTable, c.ID, c.Version, map[string]any{"name": "Maren Vale"}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	var version int
	if err := tx.Table(characterTable).Select("version").Where("id = ?", c.ID).Scan(&version).Error; err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != c.Version+1 {
		t.Fatalf("version: got %d want %d", version, c.Version+1)
	}

	err := advanceVersion(dbc, nil, characterTable, c.ID, c.Version, map[string]any{"name": "Stale"})
	if !domainagg.IsCode(MapError("op", err), domainagg.CodeConflict) {
		t.Fatalf("stale update: want conflict, got %v", err)
	}

	err = advanceVersion(dbc, nil, "", c.ID, 1, nil)
	if !domainagg.IsCode(MapError("op", err), domainagg.CodeValidation) {
		t.Fatalf("missing table: want validation, got %v", err)
	}
	err = advanceVersion(dbctx.Context{Ctx: ctx}, nil, characterTable, c.ID, 1, nil)
	if !domainagg.IsCode(MapError("op", err), domainagg.CodeValidation) {
		t.Fatalf("missing tx: want validation, got %v", err)
	}
}
