package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/yungbote/codecompanion-backend/internal/data/repos/notifications"
	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/apierr"
	"github.com/yungbote/codecompanion-backend/internal/platform/ctxutil"
	"github.com/yungbote/codecompanion-backend/internal/platform/dbctx"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

// NotificationService is the caller-scoped view of the notification store.
// The caller is taken from the request data on ctx.
type NotificationService interface {
	List(ctx context.Context, filter types.Filter) ([]*types.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
}

type notificationService struct {
	log  *logger.Logger
	repo notifications.NotificationRepo
}

func NewNotificationService(log *logger.Logger, repo notifications.NotificationRepo) NotificationService {
	return &notificationService{
		log:  log.With("service", "NotificationService"),
		repo: repo,
	}
}

var errUnauthenticated = errors.New("unauthenticated")

func caller(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthenticated", errUnauthenticated)
	}
	return rd, nil
}

func (s *notificationService) List(ctx context.Context, filter types.Filter) ([]*types.Notification, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListVisible(dbctx.From(ctx), rd.UserID, rd.Role, filter)
}

func (s *notificationService) UnreadCount(ctx context.Context) (int64, error) {
	rd, err := caller(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.CountUnread(dbctx.From(ctx), rd.UserID, rd.Role)
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	rd, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.repo.MarkRead(dbctx.From(ctx), id, rd.UserID, rd.Role)
}

func (s *notificationService) MarkAllRead(ctx context.Context) error {
	rd, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.repo.MarkAllRead(dbctx.From(ctx), rd.UserID, rd.Role)
}

func (s *notificationService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.repo.Delete(dbctx.From(ctx), id, rd.UserID, rd.Role)
}

func (s *notificationService) Clear(ctx context.Context) error {
	rd, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.repo.DeleteAllForUser(dbctx.From(ctx), rd.UserID)
}
