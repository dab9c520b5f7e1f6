package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/gateway"
)

func TestConsistency_NoCharactersReturnsEmptyWithoutGateway(t *testing.T) {
	s := newStack(t)
	ctx := asUser(uuid.New())
	p, _ := s.projects.Create(ctx, "Book", nil)

	issues, err := s.consistency.Check(ctx, CheckRequest{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if issues == nil || len(issues) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", issues)
	}
	if _, n, _ := s.gw.Calls(); n != 0 {
		t.Fatalf("gateway must not be called")
	}
}

func TestConsistency_Selectors(t *testing.T) {
	s := newStack(t)
	ctx := asUser(uuid.New())

	_, err := s.consistency.Check(ctx, CheckRequest{})
	wantStatus(t, err, http.StatusBadRequest, "missing_fields")
	_, err = s.consistency.Check(ctx, CheckRequest{DocumentID: uuid.New()})
	wantStatus(t, err, http.StatusBadRequest, "missing_fields")
	_, err = s.consistency.Check(ctx, CheckRequest{DocumentID: uuid.New(), Content: docJSON("x")})
	wantStatus(t, err, http.StatusNotFound, "document_not_found")
	_, err = s.consistency.Check(ctx, CheckRequest{ProjectID: uuid.New()})
	wantStatus(t, err, http.StatusNotFound, "project_not_found")
}

func TestConsistency_TwoDocumentContradiction(t *testing.T) {
	s := newStack(t)
	ctx := asUser(uuid.New())
	p, _ := s.projects.Create(ctx, "Book", nil)
	ch1, _ := s.documents.Create(ctx, p.ID, "Chapter 1", docJSON("Maren's grey eyes narrowed."))
	ch2, _ := s.documents.Create(ctx, p.ID, "Chapter 2", nil)

	s.gw.Observations = []knowledge.Observation{{
		Name: "Maren", Context: "Maren's grey eyes narrowed.", PhysicalDescription: "Grey eyes.",
	}}
	if _, err := s.analysis.Analyze(ctx, ch1.ID, docJSON("Maren's grey eyes narrowed.")); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	chars, _ := s.characters.ListByProject(ctx, p.ID)
	maren := chars[0]

	s.gw.Findings = []gateway.Finding{{
		CharacterID:  maren.ID.String(),
		Kind:         knowledge.IssueContradiction,
		Description:  "Maren's eye colour changes from grey to brown.",
		PriorSnippet: "Maren's grey eyes narrowed.",
		NewSnippet:   "Maren's brown eyes sparkled.",
	}}
	issues, err := s.consistency.Check(ctx, CheckRequest{DocumentID: ch2.ID, Content: docJSON("Maren's brown eyes sparkled.")})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(issues) != 1 || issues[0].IssueType != knowledge.IssueContradiction {
		t.Fatalf("expected one contradiction, got %+v", issues)
	}
	ce := issues[0].ConflictingEvidence
	if ce.Previous != "Maren's grey eyes narrowed." || ce.Current != "Maren's brown eyes sparkled." {
		t.Fatalf("unexpected conflicting evidence %+v", ce)
	}

	sent := s.gw.ContradictionCalls[0]
	if len(sent) != 1 || len(sent[0].Evidence) == 0 {
		t.Fatalf("evidence should be sent to the gateway: %+v", sent)
	}
}

func TestConsistency_StageRegressionBecomesPlotHole(t *testing.T) {
	s := newStack(t)
	ctx := asUser(uuid.New())
	p, _ := s.projects.Create(ctx, "Book", nil)
	doc, _ := s.documents.Create(ctx, p.ID, "Chapter 9", nil)

	s.gw.Observations = []knowledge.Observation{{Name: "Ilse", Context: "Ilse stormed the keep.", Stage: "climax"}}
	if _, err := s.analysis.Analyze(ctx, doc.ID, docJSON("Ilse stormed the keep.")); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	s.gw.Observations = []knowledge.Observation{{Name: "Ilse", Context: "Ilse arrived in town for the first time.", Stage: "introduction"}}
	if _, err := s.analysis.Analyze(ctx, doc.ID, docJSON("Ilse arrived in town for the first time.")); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	chars, _ := s.characters.ListByProject(ctx, p.ID)
	if got := chars[0].Profile.Data().ArcProgression.Stage; got != "climax" {
		t.Fatalf("stage must not regress, got %q", got)
	}

	issues, err := s.consistency.Check(ctx, CheckRequest{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(issues) != 1 || issues[0].IssueType != knowledge.IssuePlotHole {
		t.Fatalf("expected one plot hole, got %+v", issues)
	}
}

func TestConsistency_CharacterFilter(t *testing.T) {
	s := newStack(t)
	ctx := asUser(uuid.New())
	p, _ := s.projects.Create(ctx, "Book", nil)
	doc, _ := s.documents.Create(ctx, p.ID, "", nil)
	s.gw.Observations = []knowledge.Observation{{Name: "Maren", Context: "a"}, {Name: "Orin", Context: "b"}}
	if _, err := s.analysis.Analyze(ctx, doc.ID, docJSON("Maren and Orin.")); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	chars, _ := s.characters.ListByProject(ctx, p.ID)

	if _, err := s.consistency.Check(ctx, CheckRequest{ProjectID: p.ID, CharacterIDs: []uuid.UUID{chars[0].ID}}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if sent := s.gw.ContradictionCalls[0]; len(sent) != 1 || sent[0].CharacterID != chars[0].ID {
		t.Fatalf("only the selected character should be sent: %+v", sent)
	}

	issues, err := s.consistency.Check(ctx, CheckRequest{ProjectID: p.ID, CharacterIDs: []uuid.UUID{uuid.New()}})
	if err != nil || len(issues) != 0 {
		t.Fatalf("unknown ids should yield no issues, got %v %v", issues, err)
	}
}
