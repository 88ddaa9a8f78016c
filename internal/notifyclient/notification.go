package notifyclient

import (
	"fmt"
	"strings"
	"time"

	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
)

// LocalIDPrefix marks notifications synthesized on the client. They are never
// sent to the server.
const LocalIDPrefix = "local-"

// Notification is the client-side view of a stored notification.
type Notification struct {
	ID        string         `json:"id"`
	Type      types.Type     `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	ForUserID string         `json:"for_user_id,omitempty"`
	ForRole   types.Role     `json:"for_role,omitempty"`
	IsRead    bool           `json:"is_read"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`

	Local bool `json:"-"`
}

func IsLocalID(id string) bool { return strings.HasPrefix(id, LocalIDPrefix) }

type Filter string

const (
	FilterAll         Filter = "All"
	FilterUnread      Filter = "Unread"
	FilterPatterns    Filter = "Patterns"
	FilterProblems    Filter = "Problems"
	FilterSubmissions Filter = "Submissions"
)

var Filters = []Filter{FilterAll, FilterUnread, FilterPatterns, FilterProblems, FilterSubmissions}

func ParseFilter(s string) (Filter, error) {
	for _, f := range Filters {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

func (f Filter) Match(n Notification) bool {
	switch f {
	case FilterUnread:
		return !n.IsRead
	case FilterPatterns:
		return n.Type == types.TypeNewPattern
	case FilterProblems:
		return n.Type == types.TypeNewProblem
	case FilterSubmissions:
		switch n.Type {
		case types.TypeSubmissionApproved, types.TypeSubmissionRejected, types.TypeNewSubmission:
			return true
		}
		return false
	default:
		return true
	}
}

// Apply keeps the matching notifications in their original order.
func (f Filter) Apply(list []Notification) []Notification {
	out := make([]Notification, 0, len(list))
	for _, n := range list {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

func TimeAgo(now, t time.Time) string {
	seconds := int(now.Sub(t) / time.Second)
	if seconds < 60 {
		return "Just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return plural(minutes, "min") + " ago"
	}
	hours := minutes / 60
	if hours < 24 {
		return plural(hours, "hour") + " ago"
	}
	days := hours / 24
	if days == 1 {
		return "Yesterday"
	}
	return fmt.Sprintf("%d days ago", days)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

const (
	GroupToday     = "Today"
	GroupYesterday = "Yesterday"
	GroupEarlier   = "Earlier"
)

type Group struct {
	Label string
	Items []Notification
}

// GroupByDay buckets by calendar day in now's location. Empty buckets are
// omitted and order within a bucket is preserved.
func GroupByDay(now time.Time, list []Notification) []Group {
	today := dayOf(now)
	yesterday := dayOf(now.AddDate(0, 0, -1))

	var todays, yesterdays, earlier []Notification
	for _, n := range list {
		switch dayOf(n.CreatedAt.In(now.Location())) {
		case today:
			todays = append(todays, n)
		case yesterday:
			yesterdays = append(yesterdays, n)
		default:
			earlier = append(earlier, n)
		}
	}

	groups := make([]Group, 0, 3)
	for _, g := range []Group{
		{Label: GroupToday, Items: todays},
		{Label: GroupYesterday, Items: yesterdays},
		{Label: GroupEarlier, Items: earlier},
	} {
		if len(g.Items) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func dayOf(t time.Time) string { return t.Format("2006-01-02") }
