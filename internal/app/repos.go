package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/codecompanion-backend/internal/data/repos/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

type Repos struct {
	Notification notifications.NotificationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Notification: notifications.NewNotificationRepo(db, log),
	}
}
