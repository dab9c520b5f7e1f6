package services

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestProjectService_OwnershipAndCascade(t *testing.T) {
	s := newStack(t)
	owner, stranger := asUser(uuid.New()), asUser(uuid.New())

	if _, err := s.projects.Create(owner, "  ", nil); err == nil {
		t.Fatalf("blank title should be rejected")
	}
	p, err := s.projects.Create(owner, "The Salt Road", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.projects.Get(stranger, p.ID); err == nil {
		t.Fatalf("stranger must not see the project")
	} else {
		wantStatus(t, err, http.StatusNotFound, "project_not_found")
	}

	doc, err := s.documents.Create(owner, p.ID, "Chapter 1", json.RawMessage(`{"type":"doc","content":[{"type":"text","text":"Maren waited."}]}`))
	if err != nil {
		t.Fatalf("Create document: %v", err)
	}
	if doc.WordCount != 2 {
		t.Fatalf("expected word count 2, got %d", doc.WordCount)
	}

	list, err := s.projects.List(owner)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v %d", err, len(list))
	}
	if err := s.projects.Delete(stranger, p.ID); err == nil {
		t.Fatalf("stranger must not delete")
	}
	if err := s.projects.Delete(owner, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.documents.Get(owner, doc.ID); err == nil {
		t.Fatalf("documents should be deleted with the project")
	}
}

func TestProjectService_RequiresUser(t *testing.T) {
	s := newStack(t)
	_, err := s.projects.List(t.Context())
	wantStatus(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestDocumentService_SaveWithoutQueueWritesThrough(t *testing.T) {
	s := newStack(t)
	ctx := asUser(uuid.New())
	p, _ := s.projects.Create(ctx, "Book", nil)
	doc, _ := s.documents.Create(ctx, p.ID, "", nil)
	if doc.Title != "Untitled" {
		t.Fatalf("expected default title, got %q", doc.Title)
	}
	if err := s.documents.Save(ctx, doc.ID, json.RawMessage(`nope`)); err == nil {
		t.Fatalf("invalid JSON should be rejected")
	}
	content := json.RawMessage(`{"type":"doc","content":[{"type":"text","text":"One two three"}]}`)
	if err := s.documents.Save(ctx, doc.ID, content); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.documents.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.WordCount != 3 {
		t.Fatalf("expected word count 3, got %d", got.WordCount)
	}
}
