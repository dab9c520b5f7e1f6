package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/inkforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
)

func TestEvidenceRepo_OrderAndFieldFilter(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewEvidenceRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, tx, uuid.New())
	c := testutil.SeedCharacter(t, ctx, tx, p.ID, "Maren", knowledge.Profile{})

	earlier := time.Now().UTC().Add(-time.Minute)
	later := earlier.Add(30 * time.Second)
	rows := []*types.Evidence{
		{CharacterID: c.ID, Field: knowledge.FieldEmotionalCurrent, Snippet: "grief", BatchIndex: 0, CreatedAt: later},
		{CharacterID: c.ID, Field: knowledge.FieldTraits, Snippet: "stubborn", BatchIndex: 1, CreatedAt: earlier},
		{CharacterID: c.ID, Field: knowledge.FieldArcStage, Snippet: "opening", BatchIndex: 0, CreatedAt: earlier,
			CharacterChange: datatypes.NewJSONType(knowledge.ProfileDelta{ArcProgression: &knowledge.ArcProgression{Stage: "introduction"}})},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := repo.ListByCharacter(dbc, c.ID, "")
	if err != nil {
		t.Fatalf("ListByCharacter: %v", err)
	}
	want := []string{"opening", "stubborn", "grief"}
	if len(all) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(all))
	}
	for i := range want {
		if all[i].Snippet != want[i] {
			t.Fatalf("row %d: expected %q got %q", i, want[i], all[i].Snippet)
		}
	}
	if stage := all[0].CharacterChange.Data().ArcProgression; stage == nil || stage.Stage != "introduction" {
		t.Fatalf("delta did not round trip: %+v", all[0].CharacterChange.Data())
	}

	emotional, err := repo.ListByCharacter(dbc, c.ID, "emotional_state")
	if err != nil || len(emotional) != 1 || emotional[0].Field != knowledge.FieldEmotionalCurrent {
		t.Fatalf("field filter: err=%v rows=%v", err, emotional)
	}

	byIDs, err := repo.ListByCharacterIDs(dbc, []uuid.UUID{c.ID, uuid.New()})
	if err != nil || len(byIDs) != 3 {
		t.Fatalf("ListByCharacterIDs: err=%v len=%d", err, len(byIDs))
	}
}
