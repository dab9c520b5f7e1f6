package writing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/inkforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
)

func TestDocumentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	owner := uuid.New()
	p := testutil.SeedProject(t, ctx, tx, owner)

	d := &types.Document{ProjectID: p.ID, Title: "Chapter One"}
	if err := repo.Create(dbc, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(d.Content) == 0 {
		t.Fatalf("expected empty doc content default")
	}

	if got, err := repo.GetByIDForUser(dbc, owner, d.ID); err != nil || got == nil {
		t.Fatalf("GetByIDForUser(owner): got=%v err=%v", got, err)
	}
	if got, err := repo.GetByIDForUser(dbc, uuid.New(), d.ID); err != nil || got != nil {
		t.Fatalf("GetByIDForUser(stranger): got=%v err=%v", got, err)
	}

	content := datatypes.JSON([]byte(`{"type":"doc","content":[{"type":"text","text":"Maren waited."}]}`))
	if err := repo.UpdateContent(dbc, d.ID, content, 2); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	got, err := repo.GetByID(dbc, d.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got.WordCount != 2 {
		t.Fatalf("expected word count 2, got %d", got.WordCount)
	}

	if rows, err := repo.ListByProject(dbc, p.ID); err != nil || len(rows) != 1 {
		t.Fatalf("ListByProject: err=%v len=%d", err, len(rows))
	}
}
