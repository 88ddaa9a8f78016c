package app

import (
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
	"github.com/yungbote/codecompanion-backend/internal/realtime"
	"github.com/yungbote/codecompanion-backend/internal/services"
)

type Services struct {
	Tokens        services.TokenService
	Publisher     services.Publisher
	Notifications services.NotificationService
	Content       services.ContentNotifier
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, registry *realtime.Registry) Services {
	log.Info("Wiring services...")
	publisher := services.NewPublisher(log, reposet.Notification, registry)
	return Services{
		Tokens:        services.NewTokenService(log, cfg.JWTSecret),
		Publisher:     publisher,
		Notifications: services.NewNotificationService(log, reposet.Notification),
		Content:       services.NewContentNotifier(log, publisher),
	}
}
