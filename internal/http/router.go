package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	httpH "github.com/yungbote/codecompanion-backend/internal/http/handlers"
	httpMW "github.com/yungbote/codecompanion-backend/internal/http/middleware"
	"github.com/yungbote/codecompanion-backend/internal/observability"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware      *httpMW.AuthMiddleware
	NotificationHandler *httpH.NotificationHandler
	RealtimeHandler     *httpH.RealtimeHandler
	EventHandler        *httpH.EventHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = observability.DefaultServiceName
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Notifications
		if cfg.NotificationHandler != nil {
			protected.GET("/notifications", cfg.NotificationHandler.List)
			protected.GET("/notifications/unread-count", cfg.NotificationHandler.UnreadCount)
			protected.PATCH("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
			protected.PATCH("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
			protected.DELETE("/notifications/:id", cfg.NotificationHandler.Delete)
			protected.DELETE("/notifications", cfg.NotificationHandler.Clear)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/notifications/stream", cfg.RealtimeHandler.Stream)
		}

		// Domain event triggers
		if cfg.EventHandler != nil {
			protected.POST("/events/submission-created", cfg.EventHandler.SubmissionCreated)

			admin := protected.Group("/events")
			if cfg.AuthMiddleware != nil {
				admin.Use(cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
			}
			admin.POST("/pattern-created", cfg.EventHandler.PatternCreated)
			admin.POST("/problem-created", cfg.EventHandler.ProblemCreated)
			admin.POST("/submission-reviewed", cfg.EventHandler.SubmissionReviewed)
		}
	}

	return r
}
