package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
)

// SeedNotification inserts an unread notification directly, bypassing the
// repository under test.
func SeedNotification(tb testing.TB, ctx context.Context, tx *gorm.DB, scope types.Scope, typ types.Type, at time.Time) *types.Notification {
	tb.Helper()
	n, err := types.New(scope, types.Draft{Type: typ, Title: "seeded", Message: "seeded"}, at)
	if err != nil {
		tb.Fatalf("build notification: %v", err)
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed notification: %v", err)
	}
	return n
}
