package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/codecompanion-backend/internal/data/repos/notifications"
	"github.com/yungbote/codecompanion-backend/internal/data/repos/testutil"
	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/apierr"
	"github.com/yungbote/codecompanion-backend/internal/platform/ctxutil"
	"github.com/yungbote/codecompanion-backend/internal/platform/dbctx"
	"github.com/yungbote/codecompanion-backend/internal/realtime"
)

type recordingSink struct {
	mu     sync.Mutex
	users  []uuid.UUID
	roles  []types.Role
	online map[uuid.UUID]bool
}

func (s *recordingSink) SendToUser(userID uuid.UUID, payload any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, userID)
	return s.online[userID]
}

func (s *recordingSink) SendToRole(role types.Role, payload any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append(s.roles, role)
	return 0
}

func (s *recordingSink) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users) + len(s.roles)
}

type failingRepo struct {
	notifications.NotificationRepo
	err error
}

func (r failingRepo) Create(dbctx.Context, *types.Notification) (*types.Notification, error) {
	return nil, r.err
}

func withCaller(userID uuid.UUID, role types.Role) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID, Role: role})
}

func recvFrame(t *testing.T, c *realtime.Conn) string {
	t.Helper()
	select {
	case f := <-c.Frames():
		return string(f)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for frame")
	}
	return ""
}

func expectQuiet(t *testing.T, c *realtime.Conn) {
	t.Helper()
	select {
	case f := <-c.Frames():
		t.Fatalf("unexpected frame: %q", f)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishPersistsThenDeliversToUser(t *testing.T) {
	log := testutil.Logger(t)
	repo := notifications.NewNotificationRepo(testutil.DB(t), log)
	reg := realtime.NewRegistry(log)
	pub := NewPublisher(log, repo, reg)

	student := uuid.New()
	conn := reg.Register(student, types.RoleStudent)
	_ = recvFrame(t, conn)

	stored, err := pub.PublishToUser(context.Background(), student, types.Draft{
		Type:    types.TypeSubmissionApproved,
		Title:   "Submission Approved",
		Message: "ok",
	})
	if err != nil {
		t.Fatalf("PublishToUser: %v", err)
	}
	frame := recvFrame(t, conn)
	if !strings.Contains(frame, stored.ID.String()) || !strings.Contains(frame, `"is_read":false`) {
		t.Fatalf("frame must carry the stored record: %q", frame)
	}

	svc := NewNotificationService(log, repo)
	list, err := svc.List(withCaller(student, types.RoleStudent), types.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != stored.ID || list[0].IsRead {
		t.Fatalf("catch-up fetch: %+v", list)
	}

	if err := svc.MarkRead(withCaller(student, types.RoleStudent), stored.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	list, _ = svc.List(withCaller(student, types.RoleStudent), types.Filter{})
	if len(list) != 1 || !list[0].IsRead {
		t.Fatalf("read state must persist across fetches: %+v", list)
	}
}

func TestPublishRoleReachesOnlyMatchingConnections(t *testing.T) {
	log := testutil.Logger(t)
	repo := notifications.NewNotificationRepo(testutil.DB(t), log)
	reg := realtime.NewRegistry(log)
	pub := NewPublisher(log, repo, reg)

	admin := reg.Register(uuid.New(), types.RoleAdmin)
	student := reg.Register(uuid.New(), types.RoleStudent)
	_ = recvFrame(t, admin)
	_ = recvFrame(t, student)

	if _, err := pub.PublishToRole(context.Background(), types.RoleAdmin, types.Draft{
		Type:    types.TypeNewSubmission,
		Title:   "New Submission Received",
		Message: "x",
	}); err != nil {
		t.Fatalf("PublishToRole: %v", err)
	}
	if f := recvFrame(t, admin); !strings.Contains(f, `"new_submission"`) {
		t.Fatalf("admin frame: %q", f)
	}
	expectQuiet(t, student)
}

func TestPublishWithoutConnectionStillPersists(t *testing.T) {
	log := testutil.Logger(t)
	repo := notifications.NewNotificationRepo(testutil.DB(t), log)
	sink := &recordingSink{}
	pub := NewPublisher(log, repo, sink)

	user := uuid.New()
	if _, err := pub.PublishToUser(context.Background(), user, types.Draft{Type: types.TypeSubmissionRejected, Title: "t", Message: "m"}); err != nil {
		t.Fatalf("PublishToUser: %v", err)
	}
	n, err := repo.CountUnread(dbctx.Context{Ctx: context.Background()}, user, types.RoleStudent)
	if err != nil || n != 1 {
		t.Fatalf("CountUnread: want=1 got=%d err=%v", n, err)
	}
}

func TestPublishPersistenceFailureSkipsDelivery(t *testing.T) {
	log := testutil.Logger(t)
	boom := errors.New("db down")
	sink := &recordingSink{}
	pub := NewPublisher(log, failingRepo{err: boom}, sink)

	_, err := pub.PublishToRole(context.Background(), types.RoleAll, types.Draft{Type: types.TypeNewPattern, Title: "t", Message: "m"})
	if !errors.Is(err, boom) {
		t.Fatalf("want persistence error got=%v", err)
	}
	if sink.calls() != 0 {
		t.Fatalf("live delivery attempted for unpersisted record")
	}
}

func TestPublishRejectsInvalidInput(t *testing.T) {
	log := testutil.Logger(t)
	sink := &recordingSink{}
	pub := NewPublisher(log, failingRepo{err: errors.New("must not be called")}, sink)

	_, err := pub.Publish(context.Background(), types.Scope{}, types.Draft{Type: types.TypeNewPattern, Title: "t", Message: "m"})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusBadRequest {
		t.Fatalf("want 400 got=%v", err)
	}
	if !errors.Is(err, types.ErrInvalidScope) {
		t.Fatalf("want ErrInvalidScope in chain, got=%v", err)
	}
	if sink.calls() != 0 {
		t.Fatalf("no delivery expected")
	}
}

func TestNotificationServiceRequiresCaller(t *testing.T) {
	log := testutil.Logger(t)
	svc := NewNotificationService(log, notifications.NewNotificationRepo(testutil.DB(t), log))
	_, err := svc.List(context.Background(), types.Filter{})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
		t.Fatalf("want 401 got=%v", err)
	}
}

func TestNotificationServiceClearAndCount(t *testing.T) {
	log := testutil.Logger(t)
	db := testutil.DB(t)
	repo := notifications.NewNotificationRepo(db, log)
	pub := NewPublisher(log, repo, &recordingSink{})
	svc := NewNotificationService(log, repo)

	admin := uuid.New()
	ctx := withCaller(admin, types.RoleAdmin)
	for i := 0; i < 2; i++ {
		if _, err := pub.PublishToUser(ctx, admin, types.Draft{Type: types.TypeSubmissionApproved, Title: "t", Message: "m"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if _, err := pub.PublishToRole(ctx, types.RoleAdmin, types.Draft{Type: types.TypeNewSubmission, Title: "t", Message: "m"}); err != nil {
		t.Fatalf("publish role: %v", err)
	}

	n, err := svc.UnreadCount(ctx)
	if err != nil || n != 3 {
		t.Fatalf("UnreadCount: want=3 got=%d err=%v", n, err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := svc.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	n, _ = svc.UnreadCount(ctx)
	if n != 0 {
		t.Fatalf("UnreadCount after clear+read-all: want=0 got=%d", n)
	}
	list, _ := svc.List(ctx, types.Filter{})
	if len(list) != 1 || list[0].ForRole != types.RoleAdmin {
		t.Fatalf("role broadcast must survive clear: %+v", list)
	}
	if err := svc.Delete(ctx, list[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, list[0].ID); err != nil {
		t.Fatalf("Delete again must be idempotent: %v", err)
	}
}
