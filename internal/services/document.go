package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/inkforge-backend/internal/data/repos"
	types "github.com/yungbote/inkforge-backend/internal/domain"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/textextract"
	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type DocumentService interface {
	Create(ctx context.Context, projectID uuid.UUID, title string, content json.RawMessage) (*types.Document, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*types.Document, error)
	// Get overlays content still waiting in the autosave queue.
	Get(ctx context.Context, id uuid.UUID) (*types.Document, error)
	// Save queues new content; it reaches storage on the next autosave flush.
	Save(ctx context.Context, id uuid.UUID, content json.RawMessage) error
}

type documentService struct {
	db       *gorm.DB
	log      *logger.Logger
	projects repos.ProjectRepo
	docs     repos.DocumentRepo
	autosave *AutosaveQueue
}

func NewDocumentService(db *gorm.DB, log *logger.Logger, projects repos.ProjectRepo, docs repos.DocumentRepo, autosave *AutosaveQueue) DocumentService {
	return &documentService{
		db:       db,
		log:      log.With("service", "DocumentService"),
		projects: projects,
		docs:     docs,
		autosave: autosave,
	}
}

func validContent(content json.RawMessage) bool {
	if len(content) == 0 || !json.Valid(content) {
		return false
	}
	return strings.TrimSpace(string(content)) != "null"
}

func (s *documentService) Create(ctx context.Context, projectID uuid.UUID, title string, content json.RawMessage) (*types.Document, error) {
	p, err := ownedProject(ctx, s.projects, projectID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}
	d := &types.Document{ProjectID: p.ID, Title: title}
	if len(content) > 0 {
		if !validContent(content) {
			return nil, apierr.BadRequest("invalid_content", "content must be a JSON document")
		}
		d.Content = datatypes.JSON(content)
		d.WordCount = textextract.WordCount(textextract.ExtractJSON(content))
	}
	if err := s.docs.Create(dbctx.Context{Ctx: ctx}, d); err != nil {
		s.log.Error("Create document failed", "project_id", p.ID, "error", err)
		return nil, storageFailure(err)
	}
	return d, nil
}

func (s *documentService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*types.Document, error) {
	p, err := ownedProject(ctx, s.projects, projectID)
	if err != nil {
		return nil, err
	}
	out, err := s.docs.ListByProject(dbctx.Context{Ctx: ctx}, p.ID)
	if err != nil {
		return nil, storageFailure(err)
	}
	for _, d := range out {
		s.overlay(d)
	}
	return out, nil
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	d, err := ownedDocument(ctx, s.docs, id)
	if err != nil {
		return nil, err
	}
	s.overlay(d)
	return d, nil
}

func (s *documentService) overlay(d *types.Document) {
	if s.autosave == nil || d == nil {
		return
	}
	if pending, ok := s.autosave.Pending(d.ID); ok {
		d.Content = pending
		d.WordCount = textextract.WordCount(textextract.ExtractJSON(pending))
	}
}

func (s *documentService) Save(ctx context.Context, id uuid.UUID, content json.RawMessage) error {
	if !validContent(content) {
		return apierr.BadRequest("invalid_content", "content must be a JSON document")
	}
	d, err := ownedDocument(ctx, s.docs, id)
	if err != nil {
		return err
	}
	if s.autosave == nil {
		wc := textextract.WordCount(textextract.ExtractJSON(content))
		if err := s.docs.UpdateContent(dbctx.Context{Ctx: ctx}, d.ID, datatypes.JSON(content), wc); err != nil {
			return storageFailure(err)
		}
		return nil
	}
	if err := s.autosave.Enqueue(ctx, d.ID, content); err != nil {
		return storageFailure(err)
	}
	return nil
}
