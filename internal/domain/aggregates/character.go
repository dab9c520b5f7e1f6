package aggregates

import (
	"context"

	"github.com/google/uuid"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
)

// CharacterAggregate owns the character row, its profile, evidence appends and
// regression flags. Every Reconcile opens and commits its own transaction.
//
// Write failures return *aggregates.Error with codes:
// CodeValidation, CodeConflict, CodeRetryable, CodeInternal.
type CharacterAggregate interface {
	// Reconcile creates the character if needed and merges the observations into its
	// profile, appending one evidence row per applied change. Nothing is written when
	// the call fails.
	Reconcile(ctx context.Context, in ReconcileCharacterInput) (ReconcileCharacterResult, error)
}

type ReconcileCharacterInput struct {
	ProjectID    uuid.UUID
	DocumentID   *uuid.UUID
	DisplayName  string
	Observations []knowledge.Observation
}

type ReconcileCharacterResult struct {
	CharacterID uuid.UUID
	Name        string
	Created     bool
	Changed     bool
	EvidenceIDs []uuid.UUID
	FlagsRaised int
	Version     int
	Profile     knowledge.Profile
}
