package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/inkforge-backend/internal/data/aggregates"
	"github.com/yungbote/inkforge-backend/internal/data/repos"
	"github.com/yungbote/inkforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/consistency"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/gateway/gatewaytest"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/ledger"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/reconcile"
	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
	"github.com/yungbote/inkforge-backend/internal/platform/ctxutil"
)

type stack struct {
	db          *gorm.DB
	set         repos.Set
	gw          *gatewaytest.Scripted
	projects    ProjectService
	documents   DocumentService
	characters  CharacterService
	analysis    AnalysisService
	consistency ConsistencyService
	transform   TransformService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	gw := &gatewaytest.Scripted{}
	led := ledger.New(set.Evidence, log)
	agg := aggregates.NewCharacterAggregate(aggregates.CharacterAggregateDeps{
		Write:      aggregates.WriteDeps{DB: db, Log: log},
		Characters: set.Character,
		Flags:      set.Flag,
		Ledger:     led,
		Reconciler: reconcile.New(nil),
	})
	return &stack{
		db:          db,
		set:         set,
		gw:          gw,
		projects:    NewProjectService(db, log, set.Project),
		documents:   NewDocumentService(db, log, set.Project, set.Document, nil),
		characters:  NewCharacterService(log, set.Project, set.Character, set.Flag, led),
		analysis:    NewAnalysisService(log, set.Document, set.Character, gw, agg, nil, nil, nil, AnalysisOptions{Concurrency: 2}),
		consistency: NewConsistencyService(log, set.Project, set.Document, set.Character, set.Flag, led, consistency.New(log, gw, nil), 0),
		transform:   NewTransformService(log, set.Project, set.Character, gw, 0),
	}
}

func asUser(id uuid.UUID) context.Context {
	return ctxutil.WithUser(context.Background(), id)
}

func wantStatus(t *testing.T, err error, status int, code string) {
	t.Helper()
	ae, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected api error %d/%s, got %v", status, code, err)
	}
	if ae.Status != status || (code != "" && ae.Code != code) {
		t.Fatalf("expected %d/%s, got %d/%s (%v)", status, code, ae.Status, ae.Code, err)
	}
}
