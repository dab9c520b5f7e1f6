package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/data/aggregates"
	repotest "github.com/yungbote/inkforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
)

func countProjects(t *testing.T, r *FaultRunner) int64 {
	t.Helper()
	var n int64
	if err := r.DB.Model(&types.Project{}).Count(&n).Error; err != nil {
		t.Fatalf("count projects: %v", err)
	}
	return n
}

func insertProject(dbc dbctx.Context) error {
	return dbc.Tx.Create(&types.Project{ID: uuid.New(), UserID: uuid.New(), Title: "Book"}).Error
}

func TestFaultRunner_FailedCommitRollsBackWrites(t *testing.T) {
	r := &FaultRunner{DB: repotest.SQLite(t)}
	commitErr := errors.New("commit refused")
	r.FailNextCommits(commitErr)

	if err := r.InTx(context.Background(), insertProject); !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if n := countProjects(t, r); n != 0 {
		t.Fatalf("rolled back attempt left %d rows", n)
	}
	if err := r.InTx(context.Background(), insertProject); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if n := countProjects(t, r); n != 1 {
		t.Fatalf("expected one committed row, got %d", n)
	}
	attempts, commits, rollbacks := r.Counts()
	if attempts != 2 || commits != 1 || rollbacks != 1 {
		t.Fatalf("unexpected counts attempts=%d commits=%d rollbacks=%d", attempts, commits, rollbacks)
	}
}

func TestFaultRunner_BeginErrorSkipsBody(t *testing.T) {
	r := &FaultRunner{DB: repotest.SQLite(t), BeginErr: errors.New("pool exhausted")}
	called := false
	err := r.InTx(context.Background(), func(dbctx.Context) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected begin failure without running the body, err=%v called=%v", err, called)
	}
}

func TestWriteRecorder_KeepsAttemptOrder(t *testing.T) {
	w := &WriteRecorder{}
	w.ObserveWrite(aggregates.WriteEvent{Op: "character.reconcile", Attempt: 1, Outcome: "conflict"})
	w.ObserveRetry("character.reconcile", 1)
	w.ObserveWrite(aggregates.WriteEvent{Op: "character.reconcile", Attempt: 2, Outcome: "committed", Report: aggregates.WriteReport{Evidence: 2}})

	if diff := cmp.Diff([]string{"conflict", "committed"}, w.Outcomes()); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, w.Retries()); diff != "" {
		t.Fatalf("retries mismatch (-want +got):\n%s", diff)
	}
	if ev := w.Events()[1]; !ev.Committed() || ev.Report.Evidence != 2 {
		t.Fatalf("unexpected last event %+v", ev)
	}
}
