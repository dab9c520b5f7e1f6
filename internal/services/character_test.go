package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
)

func seedAnalyzed(t *testing.T, s *stack, userID uuid.UUID) (projectID, characterID uuid.UUID) {
	t.Helper()
	ctx := asUser(userID)
	p, _ := s.projects.Create(ctx, "Book", nil)
	doc, _ := s.documents.Create(ctx, p.ID, "", nil)
	s.gw.Observations = []knowledge.Observation{{
		Name: "Maren", Context: "Maren stood firm, furious.",
		Traits: []string{"stubborn"}, EmotionalCurrent: "furious", Stage: "climax",
	}}
	if _, err := s.analysis.Analyze(ctx, doc.ID, docJSON("Maren stood firm, furious.")); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	s.gw.Observations = []knowledge.Observation{{Name: "Maren", Context: "Maren arrived.", Stage: "introduction"}}
	if _, err := s.analysis.Analyze(ctx, doc.ID, docJSON("Maren arrived.")); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	chars, err := s.characters.ListByProject(ctx, p.ID)
	if err != nil || len(chars) != 1 {
		t.Fatalf("ListByProject: %v %v", chars, err)
	}
	return p.ID, chars[0].ID
}

func TestCharacterService_GetIncludesFlags(t *testing.T) {
	s := newStack(t)
	user := uuid.New()
	_, id := seedAnalyzed(t, s, user)

	d, err := s.characters.Get(asUser(user), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Character.Name != "Maren" || len(d.Flags) != 1 {
		t.Fatalf("unexpected detail %+v flags=%d", d.Character, len(d.Flags))
	}
}

func TestCharacterService_EvidenceFieldFilter(t *testing.T) {
	s := newStack(t)
	user := uuid.New()
	_, id := seedAnalyzed(t, s, user)
	ctx := asUser(user)

	all, err := s.characters.Evidence(ctx, id, "")
	if err != nil {
		t.Fatalf("Evidence: %v", err)
	}
	emo, err := s.characters.Evidence(ctx, id, "emotional_state")
	if err != nil {
		t.Fatalf("Evidence: %v", err)
	}
	if len(emo) != 1 || emo[0].Field != knowledge.FieldEmotionalCurrent {
		t.Fatalf("expected the emotional_state.current row, got %+v", emo)
	}
	if len(all) <= len(emo) {
		t.Fatalf("unfiltered list should be larger: %d vs %d", len(all), len(emo))
	}
	none, err := s.characters.Evidence(ctx, id, "background")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", none, err)
	}
}

func TestCharacterService_ReplayMatchesStored(t *testing.T) {
	s := newStack(t)
	user := uuid.New()
	_, id := seedAnalyzed(t, s, user)

	r, err := s.characters.Replay(asUser(user), id)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !r.MatchesStored || r.Profile.ArcProgression.Stage != "climax" {
		t.Fatalf("replay mismatch %+v", r)
	}
}

func TestCharacterService_OwnershipAndDelete(t *testing.T) {
	s := newStack(t)
	user := uuid.New()
	projectID, id := seedAnalyzed(t, s, user)

	_, err := s.characters.Get(asUser(uuid.New()), id)
	wantStatus(t, err, http.StatusNotFound, "character_not_found")
	wantStatus(t, s.characters.Delete(asUser(uuid.New()), id), http.StatusNotFound, "character_not_found")

	ctx := asUser(user)
	if err := s.characters.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	chars, _ := s.characters.ListByProject(ctx, projectID)
	if len(chars) != 0 {
		t.Fatalf("character should be gone")
	}
	rows, _ := s.set.Evidence.ListByCharacter(dbctx.Context{Ctx: ctx}, id, "")
	if len(rows) != 0 {
		t.Fatalf("evidence should cascade, got %d", len(rows))
	}
}
