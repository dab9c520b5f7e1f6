package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/inkforge-backend/internal/http"
	httpH "github.com/yungbote/inkforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/inkforge-backend/internal/http/middleware"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Project   *httpH.ProjectHandler
	Document  *httpH.DocumentHandler
	Character *httpH.CharacterHandler
	Knowledge *httpH.KnowledgeHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Project:   httpH.NewProjectHandler(services.Projects),
		Document:  httpH.NewDocumentHandler(services.Documents),
		Character: httpH.NewCharacterHandler(services.Characters),
		Knowledge: httpH.NewKnowledgeHandler(services.Analysis, services.Consistency, services.Transform),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(":"+cfg.Port, http.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      cfg.OtelServiceName,
		TracingEnabled:   cfg.OtelEnabled,
		CORSOrigins:      cfg.CORSOrigins,
		AuthMiddleware:   middleware.Auth,
		HealthHandler:    handlers.Health,
		ProjectHandler:   handlers.Project,
		DocumentHandler:  handlers.Document,
		CharacterHandler: handlers.Character,
		KnowledgeHandler: handlers.Knowledge,
	})
}
