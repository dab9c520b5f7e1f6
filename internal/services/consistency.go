package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/data/repos"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/consistency"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/ledger"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/textextract"
	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

// CheckRequest selects the text to check: a whole project, or one document's unsaved
// content. CharacterIDs narrows the characters considered.
type CheckRequest struct {
	ProjectID    uuid.UUID
	DocumentID   uuid.UUID
	Content      json.RawMessage
	CharacterIDs []uuid.UUID
}

type ConsistencyService interface {
	Check(ctx context.Context, req CheckRequest) ([]types.ConsistencyIssue, error)
}

type consistencyService struct {
	log            *logger.Logger
	projects       repos.ProjectRepo
	docs           repos.DocumentRepo
	characters     repos.CharacterRepo
	flags          repos.CharacterFlagRepo
	ledger         *ledger.Ledger
	checker        *consistency.Checker
	gatewayTimeout time.Duration
}

func NewConsistencyService(
	log *logger.Logger,
	projects repos.ProjectRepo,
	docs repos.DocumentRepo,
	characters repos.CharacterRepo,
	flags repos.CharacterFlagRepo,
	ledger *ledger.Ledger,
	checker *consistency.Checker,
	gatewayTimeout time.Duration,
) ConsistencyService {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 60 * time.Second
	}
	return &consistencyService{
		log:            log.With("service", "ConsistencyService"),
		projects:       projects,
		docs:           docs,
		characters:     characters,
		flags:          flags,
		ledger:         ledger,
		checker:        checker,
		gatewayTimeout: gatewayTimeout,
	}
}

func (s *consistencyService) Check(ctx context.Context, req CheckRequest) ([]types.ConsistencyIssue, error) {
	projectID, text, err := s.scope(ctx, req)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}

	all, err := s.characters.ListByProject(dbc, projectID)
	if err != nil {
		return nil, storageFailure(err)
	}
	chars := filterCharacters(all, req.CharacterIDs)
	if len(chars) == 0 {
		return []types.ConsistencyIssue{}, nil
	}

	ids := make([]uuid.UUID, 0, len(chars))
	for _, c := range chars {
		ids = append(ids, c.ID)
	}
	evidence, err := s.ledger.ForCharacters(ctx, ids)
	if err != nil {
		return nil, storageFailure(err)
	}
	flags, err := s.flags.ListByCharacterIDs(dbc, ids)
	if err != nil {
		return nil, storageFailure(err)
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	issues, err := s.checker.Check(gctx, consistency.Input{
		Text:       text,
		Characters: chars,
		Evidence:   evidence,
		Flags:      flags,
	})
	if err != nil {
		s.log.Warn("Consistency check failed", "project_id", projectID, "error", err)
		return nil, gatewayFailure(err)
	}
	s.log.Info("Consistency checked", "project_id", projectID, "characters", len(chars), "issues", len(issues))
	return issues, nil
}

func (s *consistencyService) scope(ctx context.Context, req CheckRequest) (uuid.UUID, string, error) {
	switch {
	case req.ProjectID != uuid.Nil:
		p, err := ownedProject(ctx, s.projects, req.ProjectID)
		if err != nil {
			return uuid.Nil, "", err
		}
		docs, err := s.docs.ListByProject(dbctx.Context{Ctx: ctx}, p.ID)
		if err != nil {
			return uuid.Nil, "", storageFailure(err)
		}
		parts := make([]string, 0, len(docs))
		for _, d := range docs {
			if t := textextract.ExtractJSON(d.Content); t != "" {
				parts = append(parts, t)
			}
		}
		return p.ID, strings.Join(parts, " "), nil
	case req.DocumentID != uuid.Nil && validContent(req.Content):
		d, err := ownedDocument(ctx, s.docs, req.DocumentID)
		if err != nil {
			return uuid.Nil, "", err
		}
		return d.ProjectID, textextract.ExtractJSON(req.Content), nil
	}
	return uuid.Nil, "", apierr.BadRequest("missing_fields", "either project_id or document_id with content is required")
}

func filterCharacters(all []*types.Character, ids []uuid.UUID) []*types.Character {
	if len(ids) == 0 {
		return all
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]*types.Character, 0, len(ids))
	for _, c := range all {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
