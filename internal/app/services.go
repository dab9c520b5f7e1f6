package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/inkforge-backend/internal/data/aggregates"
	"github.com/yungbote/inkforge-backend/internal/data/graph"
	"github.com/yungbote/inkforge-backend/internal/data/repos"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/consistency"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/gateway"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/ledger"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/reconcile"
	"github.com/yungbote/inkforge-backend/internal/modules/knowledge/stages"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/locks"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
	"github.com/yungbote/inkforge-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Projects    services.ProjectService
	Documents   services.DocumentService
	Characters  services.CharacterService
	Analysis    services.AnalysisService
	Consistency services.ConsistencyService
	Transform   services.TransformService

	Autosave *services.AutosaveQueue
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	vocab, err := stages.Load(cfg.StageVocabularyFile)
	if err != nil {
		return Services{}, fmt.Errorf("load stage vocabulary: %w", err)
	}

	led := ledger.New(reposet.Evidence, log)
	characterAgg := aggregates.NewCharacterAggregate(aggregates.CharacterAggregateDeps{
		Write: aggregates.WriteDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics, log),
		},
		Characters: reposet.Character,
		Flags:      reposet.Flag,
		Ledger:     led,
		Reconciler: reconcile.New(vocab),
	})

	gw := gateway.NewOpenAI(log, clients.OpenAI, gateway.NewValidator(log, vocab, metrics))

	var locker locks.Locker
	if clients.Redis != nil {
		locker, err = locks.NewRedis(log, clients.Redis, locks.RedisOptions{TTL: cfg.LockTTL()}, metrics)
		if err != nil {
			return Services{}, fmt.Errorf("init redis locker: %w", err)
		}
	} else {
		locker = locks.NewLocal(metrics)
	}

	autosave := services.NewAutosaveQueue(log, reposet.Document, cfg.AutosaveInterval(), metrics)

	return Services{
		Auth:       services.NewAuthService(log, cfg.JWTSecretKey),
		Projects:   services.NewProjectService(db, log, reposet.Project),
		Documents:  services.NewDocumentService(db, log, reposet.Project, reposet.Document, autosave),
		Characters: services.NewCharacterService(log, reposet.Project, reposet.Character, reposet.Flag, led),
		Analysis: services.NewAnalysisService(
			log,
			reposet.Document,
			reposet.Character,
			gw,
			characterAgg,
			locker,
			graph.NewCharacterGraph(clients.Neo4j, log, metrics),
			metrics,
			services.AnalysisOptions{
				GatewayTimeout: cfg.GatewayTimeout(),
				Concurrency:    cfg.ReconcileConcurrency,
			},
		),
		Consistency: services.NewConsistencyService(
			log,
			reposet.Project,
			reposet.Document,
			reposet.Character,
			reposet.Flag,
			led,
			consistency.New(log, gw, metrics),
			cfg.GatewayTimeout(),
		),
		Transform: services.NewTransformService(log, reposet.Project, reposet.Character, gw, cfg.GatewayTimeout()),
		Autosave:  autosave,
	}, nil
}
