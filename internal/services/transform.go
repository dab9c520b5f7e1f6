package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/inkforge-backend/internal/data/repos"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/gateway"
	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
	"github.com/yungbote/inkforge-backend/internal/platform/ctxutil"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type TransformInput struct {
	Instruction    string
	Text           string
	Scope          string
	ProjectID      uuid.UUID
	CharacterNames []string
}

type TransformService interface {
	Transform(ctx context.Context, in TransformInput) (gateway.TransformResult, error)
}

type transformService struct {
	log            *logger.Logger
	projects       repos.ProjectRepo
	characters     repos.CharacterRepo
	gw             gateway.Gateway
	gatewayTimeout time.Duration
}

func NewTransformService(log *logger.Logger, projects repos.ProjectRepo, characters repos.CharacterRepo, gw gateway.Gateway, gatewayTimeout time.Duration) TransformService {
	if gatewayTimeout <= 0 {
		gatewayTimeout = 60 * time.Second
	}
	return &transformService{
		log:            log.With("service", "TransformService"),
		projects:       projects,
		characters:     characters,
		gw:             gw,
		gatewayTimeout: gatewayTimeout,
	}
}

func (s *transformService) Transform(ctx context.Context, in TransformInput) (gateway.TransformResult, error) {
	instruction := strings.TrimSpace(in.Instruction)
	if instruction == "" || strings.TrimSpace(in.Text) == "" {
		return gateway.TransformResult{}, apierr.BadRequest("missing_fields", "instruction and text are required")
	}
	scope := gateway.Scope(strings.ToLower(strings.TrimSpace(in.Scope)))
	if scope == "" {
		scope = gateway.ScopeSelection
	}
	if !scope.Valid() {
		return gateway.TransformResult{}, apierr.BadRequest("invalid_scope", "scope must be selection, paragraph or document")
	}

	req := gateway.TransformRequest{
		Instruction:    instruction,
		Text:           in.Text,
		Scope:          scope,
		CharacterNames: in.CharacterNames,
		Profiles:       s.profiles(ctx, in.ProjectID),
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	res, err := s.gw.Transform(gctx, req)
	if err != nil {
		s.log.Warn("Transform failed", "scope", scope, "error", err)
		return gateway.TransformResult{}, gatewayFailure(err)
	}
	return res, nil
}

// profiles is best effort: an unknown or foreign project just means no extra context.
func (s *transformService) profiles(ctx context.Context, projectID uuid.UUID) []gateway.ProfileContext {
	userID := ctxutil.UserID(ctx)
	if projectID == uuid.Nil || userID == uuid.Nil {
		return nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.projects.GetByIDForUser(dbc, userID, projectID)
	if err != nil || p == nil {
		return nil
	}
	chars, err := s.characters.ListByProject(dbc, p.ID)
	if err != nil {
		s.log.Warn("Transform context lookup failed", "project_id", p.ID, "error", err)
		return nil
	}
	out := make([]gateway.ProfileContext, 0, len(chars))
	for _, c := range chars {
		out = append(out, gateway.ProfileContext{CharacterID: c.ID, Name: c.Name, Profile: c.Profile.Data()})
	}
	return out
}
