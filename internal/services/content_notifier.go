package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/apierr"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

type PatternCreated struct {
	PatternID string `json:"patternId"`
	Name      string `json:"patternName" binding:"notblank"`
}

type ProblemCreated struct {
	PatternName string `json:"patternName" binding:"notblank"`
	Title       string `json:"problemTitle" binding:"notblank"`
	Difficulty  string `json:"difficulty" binding:"notblank"`
	Platform    string `json:"platform" binding:"notblank"`
}

type SubmissionCreated struct {
	StudentID    uuid.UUID `json:"studentId" binding:"notblank"`
	StudentName  string    `json:"studentName" binding:"notblank"`
	ProblemTitle string    `json:"problemTitle" binding:"notblank"`
}

const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

type SubmissionReviewed struct {
	StudentID    uuid.UUID `json:"studentId" binding:"notblank"`
	ProblemTitle string    `json:"problemTitle" binding:"notblank"`
	Status       string    `json:"status" binding:"notblank"`
	Feedback     string    `json:"feedback,omitempty"`
}

// ContentNotifier turns domain events into notifications. Each event maps to
// exactly one notification type and one scope.
type ContentNotifier interface {
	PatternCreated(ctx context.Context, ev PatternCreated) (*types.Notification, error)
	ProblemCreated(ctx context.Context, ev ProblemCreated) (*types.Notification, error)
	SubmissionCreated(ctx context.Context, ev SubmissionCreated) (*types.Notification, error)
	// SubmissionReviewed returns (nil, nil) for a pending status.
	SubmissionReviewed(ctx context.Context, ev SubmissionReviewed) (*types.Notification, error)
}

type contentNotifier struct {
	log *logger.Logger
	pub Publisher
}

func NewContentNotifier(log *logger.Logger, pub Publisher) ContentNotifier {
	return &contentNotifier{
		log: log.With("service", "ContentNotifier"),
		pub: pub,
	}
}

func (n *contentNotifier) PatternCreated(ctx context.Context, ev PatternCreated) (*types.Notification, error) {
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	return n.pub.PublishToRole(ctx, types.RoleAll, types.Draft{
		Type:    types.TypeNewPattern,
		Title:   "New Pattern Added",
		Message: fmt.Sprintf("A new pattern '%s' has been added. Check it out!", ev.Name),
		Meta:    map[string]any{"patternId": ev.PatternID, "patternName": ev.Name},
	})
}

func (n *contentNotifier) ProblemCreated(ctx context.Context, ev ProblemCreated) (*types.Notification, error) {
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	return n.pub.PublishToRole(ctx, types.RoleAll, types.Draft{
		Type:    types.TypeNewProblem,
		Title:   "New Problem Available",
		Message: fmt.Sprintf("A new %s problem '%s' was added to %s on %s.", ev.Difficulty, ev.Title, ev.PatternName, ev.Platform),
		Meta: map[string]any{
			"patternName":  ev.PatternName,
			"problemTitle": ev.Title,
			"difficulty":   ev.Difficulty,
			"platform":     ev.Platform,
		},
	})
}

func (n *contentNotifier) SubmissionCreated(ctx context.Context, ev SubmissionCreated) (*types.Notification, error) {
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	return n.pub.PublishToRole(ctx, types.RoleAdmin, types.Draft{
		Type:    types.TypeNewSubmission,
		Title:   "New Submission Received",
		Message: fmt.Sprintf("%s submitted a solution for '%s'. Awaiting your review.", ev.StudentName, ev.ProblemTitle),
		Meta: map[string]any{
			"studentName":  ev.StudentName,
			"problemTitle": ev.ProblemTitle,
			"studentId":    ev.StudentID.String(),
		},
	})
}

func (n *contentNotifier) SubmissionReviewed(ctx context.Context, ev SubmissionReviewed) (*types.Notification, error) {
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(ev.Status)) {
	case SubmissionPending:
		n.log.Debug("Pending review produces no notification", "student_id", ev.StudentID)
		return nil, nil
	case SubmissionApproved:
		return n.pub.PublishToUser(ctx, ev.StudentID, types.Draft{
			Type:    types.TypeSubmissionApproved,
			Title:   "Submission Approved",
			Message: fmt.Sprintf("Your solution for '%s' has been approved. Great work!", ev.ProblemTitle),
			Meta:    map[string]any{"problemTitle": ev.ProblemTitle, "submissionStatus": SubmissionApproved},
		})
	case SubmissionRejected:
		return n.pub.PublishToUser(ctx, ev.StudentID, types.Draft{
			Type:    types.TypeSubmissionRejected,
			Title:   "Submission Needs Revision",
			Message: fmt.Sprintf("Your solution for '%s' was rejected. Feedback: %s", ev.ProblemTitle, ev.Feedback),
			Meta: map[string]any{
				"problemTitle":     ev.ProblemTitle,
				"submissionStatus": SubmissionRejected,
				"feedbackNote":     ev.Feedback,
			},
		})
	default:
		return nil, apierr.BadRequest("invalid_event", fmt.Errorf("unknown submission status %q", ev.Status))
	}
}
