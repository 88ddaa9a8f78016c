package notifyclient

import "testing"

func TestStoreReplaceKeepsLocal(t *testing.T) {
	s := NewStore()
	local := s.AddLocal(Notification{Title: "draft"})
	if !local.Local || !IsLocalID(local.ID) || local.CreatedAt.IsZero() {
		t.Fatalf("AddLocal: %+v", local)
	}

	s.Replace([]Notification{{ID: "a"}, {ID: "b", IsRead: true}})
	snap := s.Snapshot()
	if len(snap) != 3 || snap[0].ID != local.ID || snap[1].ID != "a" {
		t.Fatalf("snapshot: %+v", snap)
	}
	if s.UnreadCount() != 2 {
		t.Fatalf("unread: want=2 got=%d", s.UnreadCount())
	}
}

func TestStorePrependDeduplicates(t *testing.T) {
	s := NewStore()
	s.Replace([]Notification{{ID: "a"}, {ID: "b"}})
	s.Prepend(Notification{ID: "c"})
	s.Prepend(Notification{ID: "b", Title: "updated"})

	snap := s.Snapshot()
	if len(snap) != 3 || snap[0].ID != "b" || snap[0].Title != "updated" || snap[1].ID != "c" || snap[2].ID != "a" {
		t.Fatalf("snapshot: %+v", snap)
	}
}

func TestStoreMutations(t *testing.T) {
	s := NewStore()
	s.Replace([]Notification{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	before := s.Snapshot()

	if !s.MarkRead("a") || s.MarkRead("missing") {
		t.Fatalf("MarkRead presence reporting is wrong")
	}
	if s.UnreadCount() != 2 {
		t.Fatalf("unread after mark: %d", s.UnreadCount())
	}
	if !s.Remove("b") || s.Remove("b") {
		t.Fatalf("Remove presence reporting is wrong")
	}
	if s.Len() != 2 || before[1].ID != "b" {
		t.Fatalf("remove must not disturb earlier snapshots: len=%d before=%+v", s.Len(), before)
	}
	s.MarkAllRead()
	if s.UnreadCount() != 0 {
		t.Fatalf("unread after mark all: %d", s.UnreadCount())
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("clear left %d", s.Len())
	}
}
