package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/inkforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/inkforge-backend/internal/http/middleware"
	"github.com/yungbote/inkforge-backend/internal/observability"
	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware

	ProjectHandler   *httpH.ProjectHandler
	DocumentHandler  *httpH.DocumentHandler
	CharacterHandler *httpH.CharacterHandler
	KnowledgeHandler *httpH.KnowledgeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "inkforge"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.RequestScope())
	r.Use(httpMW.AccessLog(cfg.Log, cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Knowledge engine
		if cfg.KnowledgeHandler != nil {
			protected.POST("/analyze", cfg.KnowledgeHandler.Analyze)
			protected.POST("/consistency-check", cfg.KnowledgeHandler.ConsistencyCheck)
			protected.POST("/transform", cfg.KnowledgeHandler.Transform)
		}

		// Projects
		if cfg.ProjectHandler != nil {
			protected.POST("/projects", cfg.ProjectHandler.CreateProject)
			protected.GET("/projects", cfg.ProjectHandler.ListProjects)
			protected.GET("/projects/:id", cfg.ProjectHandler.GetProject)
			protected.DELETE("/projects/:id", cfg.ProjectHandler.DeleteProject)
		}

		// Documents
		if cfg.DocumentHandler != nil {
			protected.POST("/projects/:id/documents", cfg.DocumentHandler.CreateDocument)
			protected.GET("/projects/:id/documents", cfg.DocumentHandler.ListProjectDocuments)
			protected.GET("/documents/:id", cfg.DocumentHandler.GetDocument)
			protected.PUT("/documents/:id", cfg.DocumentHandler.SaveDocument)
		}

		// Characters
		if cfg.CharacterHandler != nil {
			protected.GET("/projects/:id/characters", cfg.CharacterHandler.ListProjectCharacters)
			protected.GET("/characters/:id", cfg.CharacterHandler.GetCharacter)
			protected.GET("/characters/:id/evidence", cfg.CharacterHandler.ListEvidence)
			protected.GET("/characters/:id/replay", cfg.CharacterHandler.ReplayCharacter)
			protected.DELETE("/characters/:id", cfg.CharacterHandler.DeleteCharacter)
		}
	}

	return r
}
