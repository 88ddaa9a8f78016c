package notifyclient

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the consumer's in-memory notification list, newest first.
type Store struct {
	mu    sync.RWMutex
	items []Notification
}

func NewStore() *Store { return &Store{} }

// Replace swaps in a catch-up fetch result. Local notifications survive and
// stay in front.
func (s *Store) Replace(list []Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Notification, 0, len(list)+len(s.items))
	for _, n := range s.items {
		if n.Local {
			next = append(next, n)
		}
	}
	s.items = append(next, list...)
}

// Prepend inserts a live notification at the front. A record already in the
// list (same id) is replaced instead of duplicated.
func (s *Store) Prepend(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Notification, 0, len(s.items)+1)
	next = append(next, n)
	for _, existing := range s.items {
		if existing.ID != n.ID {
			next = append(next, existing)
		}
	}
	s.items = next
}

// AddLocal prepends a client-synthesized notification with a fresh local id.
func (s *Store) AddLocal(n Notification) Notification {
	n.ID = LocalIDPrefix + uuid.NewString()
	n.Local = true
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.Prepend(n)
	return n
}

// MarkRead reports whether id was present.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsRead = true
			return true
		}
	}
	return false
}

func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].IsRead = true
	}
}

// Remove reports whether id was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		if !it.IsRead {
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot returns a copy safe to use without holding the store.
func (s *Store) Snapshot() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}
