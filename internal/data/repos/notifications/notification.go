package notifications

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/dbctx"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

// NotificationRepo is the durable notification store. Every read and
// mutation taking a (userID, role) pair is confined to the notifications
// visible to that caller; mutations touching nothing succeed.
type NotificationRepo interface {
	Create(dbc dbctx.Context, n *types.Notification) (*types.Notification, error)
	ListVisible(dbc dbctx.Context, userID uuid.UUID, role types.Role, filter types.Filter) ([]*types.Notification, error)
	CountUnread(dbc dbctx.Context, userID uuid.UUID, role types.Role) (int64, error)
	MarkRead(dbc dbctx.Context, id, userID uuid.UUID, role types.Role) error
	MarkAllRead(dbc dbctx.Context, userID uuid.UUID, role types.Role) error
	Delete(dbc dbctx.Context, id, userID uuid.UUID, role types.Role) error
	DeleteAllForUser(dbc dbctx.Context, userID uuid.UUID) error
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{
		db:  db,
		log: baseLog.With("repo", "NotificationRepo"),
	}
}

func (r *notificationRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx)
}

// visibleTo selects rows addressed to the user directly, or to a role the
// user holds (including the "all" broadcast).
func visibleTo(userID uuid.UUID, role types.Role) func(*gorm.DB) *gorm.DB {
	roles := []types.Role{types.RoleAll}
	if role.Valid() {
		roles = append(roles, role)
	}
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("(for_user_id = ? OR (for_user_id IS NULL AND for_role IN ?))", userID, roles)
	}
}

func (r *notificationRepo) Create(dbc dbctx.Context, n *types.Notification) (*types.Notification, error) {
	if n == nil {
		return nil, types.ErrInvalidScope
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if err := r.tx(dbc).Create(n).Error; err != nil {
		return nil, mapDBError("create notification", err)
	}
	return n, nil
}

func (r *notificationRepo) ListVisible(dbc dbctx.Context, userID uuid.UUID, role types.Role, filter types.Filter) ([]*types.Notification, error) {
	out := []*types.Notification{}
	q := r.tx(dbc).Model(&types.Notification{}).Scopes(visibleTo(userID, role))
	if filter.IsRead != nil {
		q = q.Where("is_read = ?", *filter.IsRead)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, mapDBError("list notifications", err)
	}
	return out, nil
}

func (r *notificationRepo) CountUnread(dbc dbctx.Context, userID uuid.UUID, role types.Role) (int64, error) {
	var n int64
	err := r.tx(dbc).Model(&types.Notification{}).
		Scopes(visibleTo(userID, role)).
		Where("is_read = ?", false).
		Count(&n).Error
	if err != nil {
		return 0, mapDBError("count unread notifications", err)
	}
	return n, nil
}

func (r *notificationRepo) MarkRead(dbc dbctx.Context, id, userID uuid.UUID, role types.Role) error {
	res := r.tx(dbc).Model(&types.Notification{}).
		Where("id = ?", id).
		Scopes(visibleTo(userID, role)).
		Update("is_read", true)
	if res.Error != nil {
		return mapDBError("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		r.log.Debug("mark read matched nothing", "notification_id", id, "user_id", userID)
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(dbc dbctx.Context, userID uuid.UUID, role types.Role) error {
	err := r.tx(dbc).Model(&types.Notification{}).
		Scopes(visibleTo(userID, role)).
		Where("is_read = ?", false).
		Update("is_read", true).Error
	return mapDBError("mark all notifications read", err)
}

func (r *notificationRepo) Delete(dbc dbctx.Context, id, userID uuid.UUID, role types.Role) error {
	res := r.tx(dbc).
		Where("id = ?", id).
		Scopes(visibleTo(userID, role)).
		Delete(&types.Notification{})
	if res.Error != nil {
		return mapDBError("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		r.log.Debug("delete matched nothing", "notification_id", id, "user_id", userID)
	}
	return nil
}

// DeleteAllForUser removes only the user's own notifications. Role
// broadcasts are shared and survive.
func (r *notificationRepo) DeleteAllForUser(dbc dbctx.Context, userID uuid.UUID) error {
	err := r.tx(dbc).
		Where("for_user_id = ?", userID).
		Delete(&types.Notification{}).Error
	return mapDBError("clear notifications", err)
}
