package aggregates

import (
	"context"
	"strings"
	"time"

	domainagg "github.com/yungbote/inkforge-backend/internal/domain/aggregates"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

const outcomeCommitted = "committed"

// WriteDeps is shared by every aggregate. Zero fields fall back to a gorm transaction,
// no hooks and a nop logger.
type WriteDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d WriteDeps) withDefaults() WriteDeps {
	if d.Runner == nil {
		d.Runner = gormRunner{db: d.DB}
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// TxRunner opens the transaction one write attempt runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormRunner struct {
	db *gorm.DB
}

func (r gormRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "no database configured", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// WriteReport is what a write body touched. It only reaches the hooks when the attempt
// commits.
type WriteReport struct {
	Created  bool
	Evidence int
	Flags    int
}

// WriteEvent describes one attempt of an aggregate write.
type WriteEvent struct {
	Op       string
	Attempt  int
	Outcome  string
	Report   WriteReport
	Duration time.Duration
}

func (e WriteEvent) Committed() bool { return e.Outcome == outcomeCommitted }

// Hooks receives one WriteEvent per attempt and one retry signal before every repeated
// attempt.
type Hooks interface {
	ObserveWrite(ev WriteEvent)
	ObserveRetry(op string, attempt int)
}

type noopHooks struct{}

func (noopHooks) ObserveWrite(WriteEvent)  {}
func (noopHooks) ObserveRetry(string, int) {}

type metricsHooks struct {
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewObservabilityHooks reports attempts to prometheus and logs committed writes at debug.
func NewObservabilityHooks(metrics *observability.Metrics, log *logger.Logger) Hooks {
	if log == nil {
		log = logger.Nop()
	}
	return &metricsHooks{metrics: metrics, log: log.With("component", "aggregate")}
}

func (h *metricsHooks) ObserveWrite(ev WriteEvent) {
	h.metrics.ObserveAggregateOperation(ev.Op, ev.Outcome, ev.Duration)
	if ev.Outcome == string(domainagg.CodeConflict) {
		h.metrics.IncAggregateConflict(ev.Op)
	}
	if ev.Committed() {
		h.log.Debug("Aggregate write committed",
			"op", ev.Op,
			"attempt", ev.Attempt,
			"created", ev.Report.Created,
			"evidence", ev.Report.Evidence,
			"flags", ev.Report.Flags,
		)
	}
}

func (h *metricsHooks) ObserveRetry(op string, attempt int) {
	h.metrics.IncAggregateRetry(op)
}

// runWrite runs body in its own transaction. A conflict repeats the whole body in a
// fresh transaction until attempts are used up or ctx is done.
func runWrite(ctx context.Context, deps WriteDeps, op string, attempts int, body func(dbc dbctx.Context) (WriteReport, error)) error {
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		var report WriteReport
		err = MapError(op, deps.Runner.InTx(ctx, func(dbc dbctx.Context) error {
			r, berr := body(dbc)
			report = r
			return berr
		}))

		ev := WriteEvent{Op: op, Attempt: attempt, Outcome: writeOutcome(err), Duration: time.Since(start)}
		if err == nil {
			ev.Report = report
		}
		deps.Hooks.ObserveWrite(ev)

		if err == nil || !domainagg.IsCode(err, domainagg.CodeConflict) || attempt == attempts || ctx.Err() != nil {
			return err
		}
		deps.Hooks.ObserveRetry(op, attempt)
		deps.Log.Warn("Aggregate write conflict, retrying", "op", op, "attempt", attempt)
	}
	return err
}

func writeOutcome(err error) string {
	if err == nil {
		return outcomeCommitted
	}
	if code := strings.TrimSpace(string(domainagg.CodeOf(err))); code != "" {
		return code
	}
	return "failure"
}
