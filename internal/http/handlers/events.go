package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/http/response"
	"github.com/yungbote/codecompanion-backend/internal/platform/ctxutil"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
	"github.com/yungbote/codecompanion-backend/internal/services"
)

// EventHandler receives domain events from the pattern, problem and
// submission services and turns them into notifications.
type EventHandler struct {
	log      *logger.Logger
	notifier services.ContentNotifier
}

var registerBindings sync.Once

func NewEventHandler(log *logger.Logger, notifier services.ContentNotifier) *EventHandler {
	registerBindings.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := services.RegisterValidations(v); err != nil {
				log.Warn("register event validations failed", "error", err)
			}
		}
	})
	return &EventHandler{
		log:      log.With("handler", "EventHandler"),
		notifier: notifier,
	}
}

func respondPublished(c *gin.Context, n *types.Notification, err error) {
	if err != nil {
		response.RespondServiceError(c, err, "publish_failed")
		return
	}
	if n == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"notification": n})
}

// POST /api/events/pattern-created
func (h *EventHandler) PatternCreated(c *gin.Context) {
	var ev services.PatternCreated
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	n, err := h.notifier.PatternCreated(c.Request.Context(), ev)
	respondPublished(c, n, err)
}

// POST /api/events/problem-created
func (h *EventHandler) ProblemCreated(c *gin.Context) {
	var ev services.ProblemCreated
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	n, err := h.notifier.ProblemCreated(c.Request.Context(), ev)
	respondPublished(c, n, err)
}

type submissionCreatedRequest struct {
	StudentName  string `json:"studentName" binding:"notblank"`
	ProblemTitle string `json:"problemTitle" binding:"notblank"`
}

// POST /api/events/submission-created. The submitting student is the caller.
func (h *EventHandler) SubmissionCreated(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	var req submissionCreatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	n, err := h.notifier.SubmissionCreated(c.Request.Context(), services.SubmissionCreated{
		StudentID:    rd.UserID,
		StudentName:  req.StudentName,
		ProblemTitle: req.ProblemTitle,
	})
	respondPublished(c, n, err)
}

type submissionReviewedRequest struct {
	StudentID    string `json:"studentId" binding:"required,uuid"`
	ProblemTitle string `json:"problemTitle" binding:"notblank"`
	Status       string `json:"status" binding:"notblank"`
	Feedback     string `json:"feedback"`
}

// POST /api/events/submission-reviewed
func (h *EventHandler) SubmissionReviewed(c *gin.Context) {
	var req submissionReviewedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid studentId"))
		return
	}
	n, err := h.notifier.SubmissionReviewed(c.Request.Context(), services.SubmissionReviewed{
		StudentID:    studentID,
		ProblemTitle: req.ProblemTitle,
		Status:       req.Status,
		Feedback:     req.Feedback,
	})
	respondPublished(c, n, err)
}
