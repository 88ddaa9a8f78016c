package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/codecompanion-backend/internal/data/repos/notifications"
	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/observability"
	"github.com/yungbote/codecompanion-backend/internal/platform/apierr"
	"github.com/yungbote/codecompanion-backend/internal/platform/dbctx"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

// LiveSink delivers frames to connected users. *realtime.Registry satisfies it.
type LiveSink interface {
	SendToUser(userID uuid.UUID, payload any) bool
	SendToRole(role types.Role, payload any) int
}

// Publisher persists a notification and then pushes the stored record to
// whoever is connected. Live delivery is never attempted for a record that
// failed to persist.
type Publisher interface {
	Publish(ctx context.Context, scope types.Scope, draft types.Draft) (*types.Notification, error)
	PublishToUser(ctx context.Context, userID uuid.UUID, draft types.Draft) (*types.Notification, error)
	PublishToRole(ctx context.Context, role types.Role, draft types.Draft) (*types.Notification, error)
}

type publisher struct {
	log  *logger.Logger
	repo notifications.NotificationRepo
	sink LiveSink
	now  func() time.Time
}

func NewPublisher(log *logger.Logger, repo notifications.NotificationRepo, sink LiveSink) Publisher {
	return &publisher{
		log:  log.With("service", "NotificationPublisher"),
		repo: repo,
		sink: sink,
		now:  time.Now,
	}
}

func (p *publisher) PublishToUser(ctx context.Context, userID uuid.UUID, draft types.Draft) (*types.Notification, error) {
	return p.Publish(ctx, types.ForUser(userID), draft)
}

func (p *publisher) PublishToRole(ctx context.Context, role types.Role, draft types.Draft) (*types.Notification, error) {
	return p.Publish(ctx, types.ForRole(role), draft)
}

func (p *publisher) Publish(ctx context.Context, scope types.Scope, draft types.Draft) (*types.Notification, error) {
	ctx, span := observability.Tracer().Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.String("notification.type", string(draft.Type)),
		attribute.String("notification.scope", scope.String()),
	))
	defer span.End()
	started := time.Now()

	scopeLabel := "role"
	if scope.IsUser() {
		scopeLabel = "user"
	}

	n, err := types.New(scope, draft, p.now())
	if err != nil {
		p.fail(span, draft, scopeLabel, err)
		return nil, apierr.BadRequest("invalid_notification", err)
	}

	stored, err := p.repo.Create(dbctx.Context{Ctx: ctx}, n)
	if err != nil {
		p.fail(span, draft, scopeLabel, err)
		p.log.Error("Failed to persist notification", "type", draft.Type, "scope", scope.String(), "error", err)
		return nil, err
	}

	delivered := 0
	if stored.ForUserID != nil {
		if p.sink != nil && p.sink.SendToUser(*stored.ForUserID, stored) {
			delivered = 1
		}
	} else if p.sink != nil {
		delivered = p.sink.SendToRole(stored.ForRole, stored)
	}
	span.SetAttributes(
		attribute.String("notification.id", stored.ID.String()),
		attribute.Int("notification.delivered", delivered),
	)
	if m := observability.Current(); m != nil {
		m.ObservePublish(string(stored.Type), scopeLabel, time.Since(started), nil)
	}
	p.log.Debug("Notification published", "notification_id", stored.ID, "type", stored.Type, "scope", scope.String(), "delivered", delivered)
	return stored, nil
}

func (p *publisher) fail(span trace.Span, draft types.Draft, scopeLabel string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if m := observability.Current(); m != nil {
		m.ObservePublish(string(draft.Type), scopeLabel, 0, err)
	}
}
