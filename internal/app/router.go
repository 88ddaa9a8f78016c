package app

import (
	apphttp "github.com/yungbote/codecompanion-backend/internal/http"
	"github.com/yungbote/codecompanion-backend/internal/observability"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlerset Handlers, mw Middleware) *apphttp.Server {
	return apphttp.NewServer(cfg.HTTPAddr, apphttp.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		ServiceName:         observability.DefaultServiceName,
		AllowedOrigins:      cfg.AllowedOrigins,
		AuthMiddleware:      mw.Auth,
		NotificationHandler: handlerset.Notification,
		RealtimeHandler:     handlerset.Realtime,
		EventHandler:        handlerset.Event,
		HealthHandler:       handlerset.Health,
	})
}
