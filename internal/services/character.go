package services

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/data/repos"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/domain/knowledge"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/ledger"
	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type CharacterDetail struct {
	Character *types.Character       `json:"character"`
	Flags     []*types.CharacterFlag `json:"flags"`
}

type ReplayResult struct {
	Profile       knowledge.Profile `json:"profile"`
	EvidenceCount int               `json:"evidence_count"`
	MatchesStored bool              `json:"matches_stored"`
}

type CharacterService interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*types.Character, error)
	Get(ctx context.Context, id uuid.UUID) (*CharacterDetail, error)
	Evidence(ctx context.Context, id uuid.UUID, field string) ([]*types.Evidence, error)
	// Replay rebuilds the profile from the ledger alone.
	Replay(ctx context.Context, id uuid.UUID) (*ReplayResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type characterService struct {
	log        *logger.Logger
	projects   repos.ProjectRepo
	characters repos.CharacterRepo
	flags      repos.CharacterFlagRepo
	ledger     *ledger.Ledger
}

func NewCharacterService(log *logger.Logger, projects repos.ProjectRepo, characters repos.CharacterRepo, flags repos.CharacterFlagRepo, ledger *ledger.Ledger) CharacterService {
	return &characterService{
		log:        log.With("service", "CharacterService"),
		projects:   projects,
		characters: characters,
		flags:      flags,
		ledger:     ledger,
	}
}

func (s *characterService) owned(ctx context.Context, id uuid.UUID) (*types.Character, error) {
	userID, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, apierr.BadRequest("invalid_character_id", "character id is required")
	}
	c, err := s.characters.GetByIDForUser(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, storageFailure(err)
	}
	if c == nil {
		return nil, apierr.NotFound("character_not_found", "character not found")
	}
	return c, nil
}

func (s *characterService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*types.Character, error) {
	p, err := ownedProject(ctx, s.projects, projectID)
	if err != nil {
		return nil, err
	}
	out, err := s.characters.ListByProject(dbctx.Context{Ctx: ctx}, p.ID)
	if err != nil {
		return nil, storageFailure(err)
	}
	return out, nil
}

func (s *characterService) Get(ctx context.Context, id uuid.UUID) (*CharacterDetail, error) {
	c, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	flags, err := s.flags.ListByCharacterIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{c.ID})
	if err != nil {
		return nil, storageFailure(err)
	}
	if flags == nil {
		flags = []*types.CharacterFlag{}
	}
	return &CharacterDetail{Character: c, Flags: flags}, nil
}

func (s *characterService) Evidence(ctx context.Context, id uuid.UUID, field string) ([]*types.Evidence, error) {
	c, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	var rows []*types.Evidence
	if field = strings.TrimSpace(field); field != "" {
		rows, err = s.ledger.ForCharacterField(ctx, c.ID, field)
	} else {
		rows, err = s.ledger.ForCharacter(ctx, c.ID)
	}
	if err != nil {
		return nil, storageFailure(err)
	}
	if rows == nil {
		rows = []*types.Evidence{}
	}
	return rows, nil
}

func (s *characterService) Replay(ctx context.Context, id uuid.UUID) (*ReplayResult, error) {
	c, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledger.ForCharacter(ctx, c.ID)
	if err != nil {
		return nil, storageFailure(err)
	}
	replayed := ledger.Replay(rows)
	stored := c.Profile.Data()
	return &ReplayResult{
		Profile:       replayed,
		EvidenceCount: len(rows),
		MatchesStored: profilesEqual(stored, replayed),
	}, nil
}

func (s *characterService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.owned(ctx, id)
	if err != nil {
		return err
	}
	if err := s.characters.DeleteCascade(dbctx.Context{Ctx: ctx}, c.ID); err != nil {
		s.log.Error("Delete character failed", "character_id", c.ID, "error", err)
		return storageFailure(err)
	}
	return nil
}

func profilesEqual(a, b knowledge.Profile) bool {
	a, b = a.Clone(), b.Clone()
	return slices.Equal(a.Traits, b.Traits) &&
		slices.Equal(a.Motivations, b.Motivations) &&
		a.EmotionalState == b.EmotionalState &&
		a.ArcProgression == b.ArcProgression &&
		maps.Equal(a.Relationships, b.Relationships) &&
		a.PhysicalDescription == b.PhysicalDescription &&
		a.Background == b.Background
}
