package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/inkforge-backend/internal/data/aggregates"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
)

// FaultRunner runs aggregate writes in real transactions on DB and can fail chosen
// attempts after the body has written, so the rollback is exercised against real rows.
//
// CommitErrs[i] fails attempt i+1 at commit; attempts beyond the slice commit normally.
type FaultRunner struct {
	DB *gorm.DB

	BeginErr   error
	CommitErrs []error

	mu        sync.Mutex
	attempts  int
	commits   int
	rollbacks int
}

var _ aggregates.TxRunner = (*FaultRunner)(nil)

// FailNextCommits fails the next attempts at commit with errs, in order.
func (r *FaultRunner) FailNextCommits(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CommitErrs = append(r.CommitErrs[:0], make([]error, r.attempts)...)
	r.CommitErrs = append(r.CommitErrs, errs...)
}

func (r *FaultRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.attempts++
	attempt := r.attempts
	beginErr := r.BeginErr
	var commitErr error
	if attempt <= len(r.CommitErrs) {
		commitErr = r.CommitErrs[attempt-1]
	}
	r.mu.Unlock()

	if beginErr != nil {
		return beginErr
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return err
		}
		return commitErr
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.rollbacks++
	} else {
		r.commits++
	}
	return err
}

// Counts returns attempts, commits and rollbacks seen so far.
func (r *FaultRunner) Counts() (attempts, commits, rollbacks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts, r.commits, r.rollbacks
}
