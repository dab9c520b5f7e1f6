package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"
	"gorm.io/datatypes"

	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type write struct {
	id        uuid.UUID
	content   string
	wordCount int
}

type recordingWriter struct {
	mu     sync.Mutex
	writes []write
	fail   error
}

func (w *recordingWriter) UpdateContent(_ dbctx.Context, id uuid.UUID, content datatypes.JSON, wc int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.writes = append(w.writes, write{id: id, content: string(content), wordCount: wc})
	return nil
}

func (w *recordingWriter) snapshot() []write {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]write(nil), w.writes...)
}

func mustEnqueue(t *testing.T, q *AutosaveQueue, id uuid.UUID, content json.RawMessage) {
	t.Helper()
	if err := q.Enqueue(context.Background(), id, content); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
}

// gatedWriter blocks every write until release is closed.
type gatedWriter struct {
	recordingWriter
	entered chan struct{}
	release chan struct{}
}

func (w *gatedWriter) UpdateContent(dbc dbctx.Context, id uuid.UUID, content datatypes.JSON, wc int) error {
	w.entered <- struct{}{}
	<-w.release
	return w.recordingWriter.UpdateContent(dbc, id, content, wc)
}

func TestAutosave_CoalescesAndFlushesOnClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := &recordingWriter{}
	q := NewAutosaveQueue(logger.Nop(), w, time.Hour, nil)
	q.Start()

	id := uuid.New()
	mustEnqueue(t, q, id, json.RawMessage(`{"type":"text","text":"one"}`))
	mustEnqueue(t, q, id, json.RawMessage(`{"type":"text","text":"one two"}`))
	mustEnqueue(t, q, id, json.RawMessage(`{"type":"text","text":"one two three"}`))

	if pending, ok := q.Pending(id); !ok || string(pending) != `{"type":"text","text":"one two three"}` {
		t.Fatalf("pending should hold the latest content, got %s", pending)
	}
	if len(w.snapshot()) != 0 {
		t.Fatalf("nothing should be written before the interval")
	}

	q.Close(context.Background())
	got := w.snapshot()
	if len(got) != 1 || got[0].wordCount != 3 {
		t.Fatalf("expected one coalesced write with 3 words, got %+v", got)
	}
	if _, ok := q.Pending(id); ok {
		t.Fatalf("nothing should be pending after close")
	}
}

func TestAutosave_FlushesOnInterval(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := &recordingWriter{}
	q := NewAutosaveQueue(logger.Nop(), w, 10*time.Millisecond, nil)
	q.Start()
	defer q.Close(context.Background())

	mustEnqueue(t, q, uuid.New(), json.RawMessage(`{"type":"text","text":"hello"}`))
	deadline := time.Now().Add(2 * time.Second)
	for len(w.snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("interval flush never happened")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAutosave_FailedWriteIsRetained(t *testing.T) {
	w := &recordingWriter{fail: errors.New("db down")}
	q := NewAutosaveQueue(logger.Nop(), w, time.Hour, nil)
	id := uuid.New()
	mustEnqueue(t, q, id, json.RawMessage(`{"type":"text","text":"kept"}`))
	q.Flush(context.Background())
	if _, ok := q.Pending(id); !ok {
		t.Fatalf("failed write should stay pending")
	}

	w.mu.Lock()
	w.fail = nil
	w.mu.Unlock()
	q.Close(context.Background())
	if len(w.snapshot()) != 1 {
		t.Fatalf("retained write should flush on close")
	}
}

func TestDocumentService_GetOverlaysPendingAutosave(t *testing.T) {
	s := newStack(t)
	ctx := asUser(uuid.New())
	p, _ := s.projects.Create(ctx, "Book", nil)
	doc, _ := s.documents.Create(ctx, p.ID, "", nil)

	q := NewAutosaveQueue(logger.Nop(), s.set.Document, time.Hour, nil)
	docs := NewDocumentService(s.db, logger.Nop(), s.set.Project, s.set.Document, q)

	if err := docs.Save(ctx, doc.ID, docJSON("Maren waited by the sea.")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := docs.Get(ctx, doc.ID)
	if err != nil || got.WordCount != 5 {
		t.Fatalf("expected pending overlay with 5 words, got %+v %v", got, err)
	}
	stored, _ := s.set.Document.GetByID(dbctx.Context{Ctx: ctx}, doc.ID)
	if stored.WordCount != 0 {
		t.Fatalf("storage should not be written before flush")
	}
	q.Close(ctx)
	stored, _ = s.set.Document.GetByID(dbctx.Context{Ctx: ctx}, doc.ID)
	if stored.WordCount != 5 {
		t.Fatalf("expected flushed word count 5, got %d", stored.WordCount)
	}
}

func TestAutosave_ContentStaysVisibleWhileWriting(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := &gatedWriter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	q := NewAutosaveQueue(logger.Nop(), w, time.Hour, nil)
	id := uuid.New()
	mustEnqueue(t, q, id, json.RawMessage(`{"type":"text","text":"first draft"}`))

	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		q.Flush(context.Background())
	}()
	<-w.entered

	if pending, ok := q.Pending(id); !ok || string(pending) != `{"type":"text","text":"first draft"}` {
		t.Fatalf("content must stay visible during its write, got %s %v", pending, ok)
	}
	mustEnqueue(t, q, id, json.RawMessage(`{"type":"text","text":"second draft"}`))
	close(w.release)
	<-flushed

	if pending, ok := q.Pending(id); !ok || string(pending) != `{"type":"text","text":"second draft"}` {
		t.Fatalf("newer content must survive the older write, got %s %v", pending, ok)
	}
	q.Flush(context.Background())
	if _, ok := q.Pending(id); ok {
		t.Fatalf("second flush should clear the entry")
	}
	got := w.snapshot()
	if len(got) != 2 || got[1].content != `{"type":"text","text":"second draft"}` {
		t.Fatalf("expected both drafts written in order, got %+v", got)
	}
}

func TestAutosave_EnqueueAfterCloseWritesThrough(t *testing.T) {
	w := &recordingWriter{}
	q := NewAutosaveQueue(logger.Nop(), w, time.Hour, nil)
	q.Close(context.Background())

	id := uuid.New()
	mustEnqueue(t, q, id, json.RawMessage(`{"type":"text","text":"late save"}`))
	if got := w.snapshot(); len(got) != 1 || got[0].id != id || got[0].wordCount != 2 {
		t.Fatalf("late save should be written immediately, got %+v", got)
	}
	if _, ok := q.Pending(id); ok {
		t.Fatalf("closed queue must not buffer")
	}

	w.mu.Lock()
	w.fail = errors.New("db down")
	w.mu.Unlock()
	if err := q.Enqueue(context.Background(), id, json.RawMessage(`{"type":"text","text":"lost"}`)); err == nil {
		t.Fatalf("write-through failure must be reported")
	}
}
