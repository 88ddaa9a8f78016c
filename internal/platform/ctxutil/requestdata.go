package ctxutil

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/codecompanion-backend/internal/domain/notifications"
)

type requestDataKey struct{}

// RequestData is the authenticated identity attached to a request by the
// auth middleware.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	Email       string
	Role        notifications.Role
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

// GetRequestData returns nil unless the request carries an authenticated user.
func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	rd, ok := ctx.Value(requestDataKey{}).(*RequestData)
	if !ok || rd == nil || rd.UserID == uuid.Nil {
		return nil
	}
	return rd
}
