package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/codecompanion-backend/internal/http/response"
	"github.com/yungbote/codecompanion-backend/internal/platform/ctxutil"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
	"github.com/yungbote/codecompanion-backend/internal/realtime"
)

type RealtimeHandler struct {
	log      *logger.Logger
	registry *realtime.Registry
}

func NewRealtimeHandler(log *logger.Logger, registry *realtime.Registry) *RealtimeHandler {
	return &RealtimeHandler{
		log:      log.With("handler", "RealtimeHandler"),
		registry: registry,
	}
}

// Stream holds the request open as an event stream until the client leaves.
// Unauthenticated requests are rejected before anything is registered.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	h.log.Info("SSE stream open", "user_id", rd.UserID.String(), "role", string(rd.Role))
	h.registry.ServeHTTP(c.Writer, c.Request, rd.UserID, rd.Role)
	h.log.Info("SSE stream closed", "user_id", rd.UserID.String())
}
