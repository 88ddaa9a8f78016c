package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/codecompanion-backend/internal/domain/notifications"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&notifications.Notification{},
	)
}
