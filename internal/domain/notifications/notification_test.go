package notifications

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestScopeValidate(t *testing.T) {
	uid := uuid.New()
	nilID := uuid.Nil
	cases := []struct {
		name  string
		scope Scope
		ok    bool
	}{
		{"user", ForUser(uid), true},
		{"role admin", ForRole(RoleAdmin), true},
		{"role all", ForRole(RoleAll), true},
		{"both", Scope{UserID: &uid, Role: RoleAdmin}, false},
		{"neither", Scope{}, false},
		{"nil user", Scope{UserID: &nilID}, false},
		{"unknown role", ForRole("guest"), false},
	}
	for _, tc := range cases {
		err := tc.scope.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected err: %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidScope) {
			t.Fatalf("%s: want ErrInvalidScope got=%v", tc.name, err)
		}
	}
}

func TestRoleMatches(t *testing.T) {
	if !RoleAdmin.Matches(RoleAdmin) || !RoleStudent.Matches(RoleAll) {
		t.Fatalf("expected matches")
	}
	if RoleStudent.Matches(RoleAdmin) {
		t.Fatalf("student must not match admin broadcast")
	}
	if RoleAll.Valid() {
		t.Fatalf("all is a target, not a user role")
	}
}

func TestNewMaterializesDraft(t *testing.T) {
	uid := uuid.New()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	n, err := New(ForUser(uid), Draft{
		Type:    TypeSubmissionApproved,
		Title:   " Submission Approved ",
		Message: "ok",
		Meta:    map[string]any{"problemTitle": "Two Sum"},
	}, now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.ID == uuid.Nil || n.IsRead {
		t.Fatalf("expected fresh unread notification: %+v", n)
	}
	if n.ForUserID == nil || *n.ForUserID != uid || n.ForRole != "" {
		t.Fatalf("expected user scope only: %+v", n)
	}
	if n.Title != "Submission Approved" {
		t.Fatalf("title: want=%q got=%q", "Submission Approved", n.Title)
	}
	if n.CreatedAt.Location() != time.UTC || !n.CreatedAt.Equal(now) {
		t.Fatalf("created_at: got=%v", n.CreatedAt)
	}
	if string(n.Meta) != `{"problemTitle":"Two Sum"}` {
		t.Fatalf("meta: got=%s", n.Meta)
	}
}

func TestNewRejectsInvalidType(t *testing.T) {
	_, err := New(ForRole(RoleAll), Draft{Type: TypeConnected, Title: "x", Message: "y"}, time.Now())
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("want ErrInvalidType got=%v", err)
	}
}
