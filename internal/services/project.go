package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/inkforge-backend/internal/data/repos"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type ProjectService interface {
	Create(ctx context.Context, title string, description *string) (*types.Project, error)
	List(ctx context.Context) ([]*types.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	db       *gorm.DB
	log      *logger.Logger
	projects repos.ProjectRepo
}

func NewProjectService(db *gorm.DB, log *logger.Logger, projects repos.ProjectRepo) ProjectService {
	return &projectService{db: db, log: log.With("service", "ProjectService"), projects: projects}
}

func (s *projectService) Create(ctx context.Context, title string, description *string) (*types.Project, error) {
	userID, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.BadRequest("missing_title", "title is required")
	}
	if description != nil {
		d := strings.TrimSpace(*description)
		if d == "" {
			description = nil
		} else {
			description = &d
		}
	}
	p := &types.Project{UserID: userID, Title: title, Description: description}
	if err := s.projects.Create(dbctx.Context{Ctx: ctx}, p); err != nil {
		s.log.Error("Create project failed", "error", err)
		return nil, storageFailure(err)
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context) ([]*types.Project, error) {
	userID, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.projects.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, storageFailure(err)
	}
	return out, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	return ownedProject(ctx, s.projects, id)
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := ownedProject(ctx, s.projects, id)
	if err != nil {
		return err
	}
	if err := s.projects.DeleteCascade(dbctx.Context{Ctx: ctx}, p.ID); err != nil {
		s.log.Error("Delete project failed", "project_id", p.ID, "error", err)
		return storageFailure(err)
	}
	s.log.Info("Project deleted", "project_id", p.ID)
	return nil
}

// ownedProject reports a project owned by someone else as not found.
func ownedProject(ctx context.Context, projects repos.ProjectRepo, id uuid.UUID) (*types.Project, error) {
	userID, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, apierr.BadRequest("invalid_project_id", "project id is required")
	}
	p, err := projects.GetByIDForUser(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, storageFailure(err)
	}
	if p == nil {
		return nil, apierr.NotFound("project_not_found", "project not found")
	}
	return p, nil
}

func ownedDocument(ctx context.Context, docs repos.DocumentRepo, id uuid.UUID) (*types.Document, error) {
	userID, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, apierr.BadRequest("invalid_document_id", "document id is required")
	}
	d, err := docs.GetByIDForUser(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, storageFailure(err)
	}
	if d == nil {
		return nil, apierr.NotFound("document_not_found", "document not found")
	}
	return d, nil
}
