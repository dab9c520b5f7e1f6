package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/textextract"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

// ContentWriter is the storage side of the autosave queue.
type ContentWriter interface {
	UpdateContent(dbc dbctx.Context, id uuid.UUID, content datatypes.JSON, wordCount int) error
}

// AutosaveQueue coalesces editor saves per document. Only the latest content enqueued
// within one interval is written, so each document is written at most once per interval.
// Content stays visible through Pending until a write of that exact version succeeds.
type AutosaveQueue struct {
	log      *logger.Logger
	writer   ContentWriter
	interval time.Duration
	metrics  *observability.Metrics

	flushMu sync.Mutex

	mu      sync.Mutex
	pending map[uuid.UUID]pendingContent
	seq     uint64
	started bool
	closed  bool
	stop    chan struct{}
	done    chan struct{}
}

type pendingContent struct {
	content json.RawMessage
	seq     uint64
}

func NewAutosaveQueue(log *logger.Logger, writer ContentWriter, interval time.Duration, metrics *observability.Metrics) *AutosaveQueue {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &AutosaveQueue{
		log:      log.With("service", "AutosaveQueue"),
		writer:   writer,
		interval: interval,
		metrics:  metrics,
		pending:  map[uuid.UUID]pendingContent{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the flush loop until Close.
func (q *AutosaveQueue) Start() {
	q.mu.Lock()
	if q.started || q.closed {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	go func() {
		defer close(q.done)
		t := time.NewTicker(q.interval)
		defer t.Stop()
		for {
			select {
			case <-q.stop:
				return
			case <-t.C:
				q.Flush(context.Background())
			}
		}
	}()
}

// Enqueue buffers content for the next flush. Once the queue is closed the content is
// written immediately and the write error is returned.
func (q *AutosaveQueue) Enqueue(ctx context.Context, id uuid.UUID, content json.RawMessage) error {
	content = append(json.RawMessage(nil), content...)
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return q.write(ctx, id, content)
	}
	q.seq++
	q.pending[id] = pendingContent{content: content, seq: q.seq}
	n := len(q.pending)
	q.mu.Unlock()
	q.metrics.SetAutosavePending(n)
	return nil
}

func (q *AutosaveQueue) Pending(id uuid.UUID) (datatypes.JSON, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.pending[id]
	if !ok {
		return nil, false
	}
	return datatypes.JSON(append([]byte(nil), p.content...)), true
}

// Flush writes everything pending. An entry is removed only after its write succeeds
// and no newer content replaced it meanwhile.
func (q *AutosaveQueue) Flush(ctx context.Context) {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	q.mu.Lock()
	batch := make(map[uuid.UUID]pendingContent, len(q.pending))
	for id, p := range q.pending {
		batch[id] = p
	}
	q.mu.Unlock()

	for id, p := range batch {
		if err := q.write(ctx, id, p.content); err != nil {
			q.log.Warn("Autosave flush failed", "document_id", id, "error", err)
			continue
		}
		q.mu.Lock()
		if cur, ok := q.pending[id]; ok && cur.seq == p.seq {
			delete(q.pending, id)
		}
		q.mu.Unlock()
	}

	q.mu.Lock()
	n := len(q.pending)
	q.mu.Unlock()
	q.metrics.SetAutosavePending(n)
}

func (q *AutosaveQueue) write(ctx context.Context, id uuid.UUID, content json.RawMessage) error {
	wc := textextract.WordCount(textextract.ExtractJSON(content))
	if err := q.writer.UpdateContent(dbctx.Context{Ctx: ctx}, id, datatypes.JSON(content), wc); err != nil {
		q.metrics.IncAutosaveFlush("error")
		return err
	}
	q.metrics.IncAutosaveFlush("success")
	return nil
}

// Close stops the loop and writes whatever is still pending. Later saves bypass the
// buffer.
func (q *AutosaveQueue) Close(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	started := q.started
	q.mu.Unlock()

	close(q.stop)
	if started {
		select {
		case <-q.done:
		case <-ctx.Done():
		}
	}
	q.Flush(ctx)
}
