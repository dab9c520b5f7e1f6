package knowledge

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
)

func TestCharacterFlagRepo_IgnoresDuplicates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCharacterFlagRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, tx, uuid.New())
	d := testutil.SeedDocument(t, ctx, tx, p.ID, "")
	c := testutil.SeedCharacter(t, ctx, tx, p.ID, "Maren", knowledge.Profile{})

	mk := func() *types.CharacterFlag {
		return &types.CharacterFlag{
			CharacterID: c.ID,
			DocumentID:  testutil.PtrUUID(d.ID),
			Kind:        knowledge.FlagStageRegression,
			Snippet:     "Maren hesitated at the gate again.",
			FromStage:   "climax",
			ToStage:     "introduction",
		}
	}
	n, err := repo.CreateIgnoreDuplicates(dbc, []*types.CharacterFlag{mk()})
	if err != nil || n != 1 {
		t.Fatalf("first insert: n=%d err=%v", n, err)
	}
	n, err = repo.CreateIgnoreDuplicates(dbc, []*types.CharacterFlag{mk()})
	if err != nil || n != 0 {
		t.Fatalf("retry must not duplicate: n=%d err=%v", n, err)
	}

	rows, err := repo.ListByCharacterIDs(dbc, []uuid.UUID{c.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByCharacterIDs: err=%v len=%d", err, len(rows))
	}
}
