package app

import (
	httpH "github.com/yungbote/codecompanion-backend/internal/http/handlers"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
	"github.com/yungbote/codecompanion-backend/internal/realtime"
)

type Handlers struct {
	Notification *httpH.NotificationHandler
	Realtime     *httpH.RealtimeHandler
	Event        *httpH.EventHandler
	Health       *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, registry *realtime.Registry) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Notification: httpH.NewNotificationHandler(log, serviceset.Notifications),
		Realtime:     httpH.NewRealtimeHandler(log, registry),
		Event:        httpH.NewEventHandler(log, serviceset.Content),
		Health:       httpH.NewHealthHandler(),
	}
}
