package notifications

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/codecompanion-backend/internal/data/repos/testutil"
	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/apierr"
	"github.com/yungbote/codecompanion-backend/internal/platform/dbctx"
)

func mustNotification(t *testing.T, scope types.Scope, typ types.Type, at time.Time) *types.Notification {
	t.Helper()
	n, err := types.New(scope, types.Draft{Type: typ, Title: "t", Message: "m"}, at)
	if err != nil {
		t.Fatalf("types.New: %v", err)
	}
	return n
}

func ids(list []*types.Notification) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(list))
	for _, n := range list {
		out = append(out, n.ID)
	}
	return out
}

func TestNotificationRepoVisibility(t *testing.T) {
	db := testutil.DB(t)
	repo := NewNotificationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	student := uuid.New()
	other := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	mine := mustNotification(t, types.ForUser(student), types.TypeSubmissionApproved, base)
	theirs := mustNotification(t, types.ForUser(other), types.TypeSubmissionRejected, base.Add(time.Minute))
	toAll := mustNotification(t, types.ForRole(types.RoleAll), types.TypeNewPattern, base.Add(2*time.Minute))
	toAdmins := mustNotification(t, types.ForRole(types.RoleAdmin), types.TypeNewSubmission, base.Add(3*time.Minute))
	toStudents := mustNotification(t, types.ForRole(types.RoleStudent), types.TypeNewProblem, base.Add(4*time.Minute))

	for _, n := range []*types.Notification{mine, theirs, toAll, toAdmins, toStudents} {
		if _, err := repo.Create(dbc, n); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.ListVisible(dbc, student, types.RoleStudent, types.Filter{})
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	want := []uuid.UUID{toStudents.ID, toAll.ID, mine.ID}
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("visible count: want=%d got=%d", len(want), len(gotIDs))
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("order[%d]: want=%s got=%s", i, want[i], gotIDs[i])
		}
	}

	admin := uuid.New()
	adminList, err := repo.ListVisible(dbc, admin, types.RoleAdmin, types.Filter{})
	if err != nil {
		t.Fatalf("ListVisible admin: %v", err)
	}
	if len(adminList) != 2 || adminList[0].ID != toAdmins.ID || adminList[1].ID != toAll.ID {
		t.Fatalf("admin visible: got=%v", ids(adminList))
	}

	typed, err := repo.ListVisible(dbc, student, types.RoleStudent, types.Filter{Type: types.TypeNewPattern})
	if err != nil {
		t.Fatalf("ListVisible typed: %v", err)
	}
	if len(typed) != 1 || typed[0].ID != toAll.ID {
		t.Fatalf("type filter: got=%v", ids(typed))
	}
}

func TestNotificationRepoReadRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	repo := NewNotificationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	user := uuid.New()
	n := mustNotification(t, types.ForUser(user), types.TypeSubmissionApproved, time.Now())
	if _, err := repo.Create(dbc, n); err != nil {
		t.Fatalf("Create: %v", err)
	}

	count, err := repo.CountUnread(dbc, user, types.RoleStudent)
	if err != nil || count != 1 {
		t.Fatalf("CountUnread: want=1 got=%d err=%v", count, err)
	}

	if err := repo.MarkRead(dbc, n.ID, user, types.RoleStudent); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	// idempotent
	if err := repo.MarkRead(dbc, n.ID, user, types.RoleStudent); err != nil {
		t.Fatalf("MarkRead again: %v", err)
	}

	unread := false
	list, err := repo.ListVisible(dbc, user, types.RoleStudent, types.Filter{IsRead: &unread})
	if err != nil {
		t.Fatalf("ListVisible unread: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no unread, got=%d", len(list))
	}
	all, err := repo.ListVisible(dbc, user, types.RoleStudent, types.Filter{})
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(all) != 1 || !all[0].IsRead {
		t.Fatalf("expected persisted read state: %+v", all)
	}
}

func TestNotificationRepoMutationsStayInScope(t *testing.T) {
	db := testutil.DB(t)
	repo := NewNotificationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	owner := uuid.New()
	intruder := uuid.New()
	private := mustNotification(t, types.ForUser(owner), types.TypeSubmissionRejected, time.Now())
	adminOnly := mustNotification(t, types.ForRole(types.RoleAdmin), types.TypeNewSubmission, time.Now())
	for _, n := range []*types.Notification{private, adminOnly} {
		if _, err := repo.Create(dbc, n); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := repo.MarkRead(dbc, private.ID, intruder, types.RoleStudent); err != nil {
		t.Fatalf("MarkRead foreign: %v", err)
	}
	if err := repo.Delete(dbc, adminOnly.ID, intruder, types.RoleStudent); err != nil {
		t.Fatalf("Delete foreign: %v", err)
	}
	if err := repo.MarkAllRead(dbc, intruder, types.RoleStudent); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	ownerList, _ := repo.ListVisible(dbc, owner, types.RoleStudent, types.Filter{})
	if len(ownerList) != 1 || ownerList[0].IsRead {
		t.Fatalf("owner notification must be untouched: %+v", ownerList)
	}
	adminList, _ := repo.ListVisible(dbc, uuid.New(), types.RoleAdmin, types.Filter{})
	if len(adminList) != 1 {
		t.Fatalf("admin broadcast must survive foreign delete: got=%d", len(adminList))
	}
}

func TestNotificationRepoClearKeepsBroadcasts(t *testing.T) {
	db := testutil.DB(t)
	repo := NewNotificationRepo(db, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	user := uuid.New()
	testutil.SeedNotification(t, ctx, db, types.ForUser(user), types.TypeSubmissionApproved, time.Now())
	testutil.SeedNotification(t, ctx, db, types.ForUser(user), types.TypeSubmissionRejected, time.Now())
	testutil.SeedNotification(t, ctx, db, types.ForRole(types.RoleAll), types.TypeNewPattern, time.Now())

	if err := repo.DeleteAllForUser(dbc, user); err != nil {
		t.Fatalf("DeleteAllForUser: %v", err)
	}
	left, err := repo.ListVisible(dbc, user, types.RoleStudent, types.Filter{})
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(left) != 1 || left[0].Type != types.TypeNewPattern {
		t.Fatalf("expected only broadcast to survive: %+v", left)
	}
}

func TestNotificationRepoWithinTx(t *testing.T) {
	db := testutil.DB(t)
	repo := NewNotificationRepo(db, testutil.Logger(t))

	tx := db.Begin()
	user := uuid.New()
	n := mustNotification(t, types.ForUser(user), types.TypeSubmissionApproved, time.Now())
	if _, err := repo.Create(dbctx.Context{Ctx: context.Background(), Tx: tx}, n); err != nil {
		t.Fatalf("Create in tx: %v", err)
	}
	if err := tx.Rollback().Error; err != nil {
		t.Fatalf("rollback: %v", err)
	}

	list, err := repo.ListVisible(dbctx.Context{Ctx: context.Background()}, user, types.RoleStudent, types.Filter{})
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("rolled back insert must not be visible, got=%d", len(list))
	}
}

func TestNotificationRepoReadsOwnTxWrites(t *testing.T) {
	db := testutil.DB(t)
	repo := NewNotificationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, db)}

	user := uuid.New()
	n := mustNotification(t, types.ForUser(user), types.TypeSubmissionRejected, time.Now())
	if _, err := repo.Create(dbc, n); err != nil {
		t.Fatalf("Create in tx: %v", err)
	}
	count, err := repo.CountUnread(dbc, user, types.RoleStudent)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count != 1 {
		t.Fatalf("tx must see its own insert, got=%d", count)
	}
}

func TestMapDBError(t *testing.T) {
	err := mapDBError("op", context.Canceled)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusServiceUnavailable {
		t.Fatalf("canceled: got=%v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped cause")
	}
	if mapDBError("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
