package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/inkforge-backend/internal/data/graph"
	"github.com/yungbote/inkforge-backend/internal/data/repos"
	domainagg "github.com/yungbote/inkforge-backend/internal/domain/aggregates"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/gateway"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/reconcile"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/textextract"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
	"github.com/yungbote/inkforge-backend/internal/platform/dbctx"
	"github.com/yungbote/inkforge-backend/internal/platform/locks"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type AnalyzeResult struct {
	CharactersDetected []string `json:"characters_detected"`
	UpdatesApplied     int      `json:"updates_applied"`
}

func emptyAnalyzeResult() AnalyzeResult {
	return AnalyzeResult{CharactersDetected: []string{}}
}

type AnalysisService interface {
	// Analyze reads content (not the stored document) and reconciles every character
	// it mentions into the document's project.
	Analyze(ctx context.Context, documentID uuid.UUID, content json.RawMessage) (AnalyzeResult, error)
}

type AnalysisOptions struct {
	GatewayTimeout time.Duration
	Concurrency    int
}

type analysisService struct {
	log        *logger.Logger
	docs       repos.DocumentRepo
	characters repos.CharacterRepo
	gw         gateway.Gateway
	agg        domainagg.CharacterAggregate
	locker     locks.Locker
	graph      graph.CharacterGraph
	metrics    *observability.Metrics
	opts       AnalysisOptions
}

func NewAnalysisService(
	log *logger.Logger,
	docs repos.DocumentRepo,
	characters repos.CharacterRepo,
	gw gateway.Gateway,
	agg domainagg.CharacterAggregate,
	locker locks.Locker,
	projection graph.CharacterGraph,
	metrics *observability.Metrics,
	opts AnalysisOptions,
) AnalysisService {
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = 60 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if locker == nil {
		locker = locks.NewLocal(metrics)
	}
	if projection == nil {
		projection = graph.NewCharacterGraph(nil, log, metrics)
	}
	return &analysisService{
		log:        log.With("service", "AnalysisService"),
		docs:       docs,
		characters: characters,
		gw:         gw,
		agg:        agg,
		locker:     locker,
		graph:      projection,
		metrics:    metrics,
		opts:       opts,
	}
}

func (s *analysisService) Analyze(ctx context.Context, documentID uuid.UUID, content json.RawMessage) (AnalyzeResult, error) {
	if documentID == uuid.Nil || !validContent(content) {
		return AnalyzeResult{}, apierr.BadRequest("missing_fields", "document_id and content are required")
	}
	doc, err := ownedDocument(ctx, s.docs, documentID)
	if err != nil {
		return AnalyzeResult{}, err
	}

	text := textextract.ExtractJSON(content)
	if text == "" {
		return emptyAnalyzeResult(), nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.opts.GatewayTimeout)
	observations, err := s.gw.Extract(gctx, text)
	cancel()
	if err != nil {
		s.log.Warn("Character extraction failed", "document_id", doc.ID, "error", err)
		return AnalyzeResult{}, gatewayFailure(err)
	}

	groups := reconcile.GroupByName(observations)
	results := make([]domainagg.ReconcileCharacterResult, len(groups))
	errs := make([]error, len(groups))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, grp := range groups {
		g.Go(func() error {
			results[i], errs[i] = s.reconcileOne(ctx, doc.ProjectID, doc.ID, grp)
			return nil
		})
	}
	_ = g.Wait()

	out := emptyAnalyzeResult()
	for _, grp := range groups {
		out.CharactersDetected = append(out.CharactersDetected, grp.DisplayName)
	}
	changed := false
	for i, r := range results {
		if errs[i] != nil {
			s.metrics.ObserveReconciliation("error", 0, 0)
			continue
		}
		if r.Name != "" {
			out.CharactersDetected[i] = r.Name
		}
		outcome := "unchanged"
		if r.Changed {
			out.UpdatesApplied++
			changed = true
			outcome = "updated"
			if r.Created {
				outcome = "created"
			}
		}
		s.metrics.ObserveReconciliation(outcome, len(r.EvidenceIDs), r.FlagsRaised)
	}

	if changed {
		s.project(ctx, doc.ProjectID)
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Error("Reconciliation failed for some characters",
			"document_id", doc.ID,
			"characters", out.CharactersDetected,
			"updates_applied", out.UpdatesApplied,
			"error", err,
		)
		return out, aggregateFailure(err)
	}
	s.log.Info("Document analyzed",
		"document_id", doc.ID,
		"characters_detected", out.CharactersDetected,
		"updates_applied", out.UpdatesApplied,
	)
	return out, nil
}

func (s *analysisService) reconcileOne(ctx context.Context, projectID, documentID uuid.UUID, grp reconcile.Group) (domainagg.ReconcileCharacterResult, error) {
	release, err := s.locker.Acquire(ctx, projectID.String()+":"+grp.Key)
	if err != nil {
		return domainagg.ReconcileCharacterResult{}, domainagg.Wrap(domainagg.CodeRetryable, "character.lock", err)
	}
	defer release()

	docID := documentID
	return s.agg.Reconcile(ctx, domainagg.ReconcileCharacterInput{
		ProjectID:    projectID,
		DocumentID:   &docID,
		DisplayName:  grp.DisplayName,
		Observations: grp.Observations,
	})
}

// project refreshes the relationship graph. It never fails the request.
func (s *analysisService) project(ctx context.Context, projectID uuid.UUID) {
	chars, err := s.characters.ListByProject(dbctx.Context{Ctx: ctx}, projectID)
	if err != nil {
		s.log.Warn("Graph projection skipped", "project_id", projectID, "error", err)
		return
	}
	if err := s.graph.Project(ctx, projectID, chars); err != nil {
		s.log.Warn("Graph projection failed", "project_id", projectID, "error", err)
	}
}
