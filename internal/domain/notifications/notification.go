package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	ErrInvalidType  = errors.New("invalid notification type")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidScope = errors.New("notification scope must target exactly one user or one role")
)

type Type string

const (
	TypeNewPattern         Type = "new_pattern"
	TypeNewProblem         Type = "new_problem"
	TypeSubmissionApproved Type = "submission_approved"
	TypeSubmissionRejected Type = "submission_rejected"
	TypeNewSubmission      Type = "new_submission"

	// TypeConnected is the liveness marker written once per stream. It is
	// never persisted.
	TypeConnected Type = "connected"
)

func (t Type) Valid() bool {
	switch t {
	case TypeNewPattern, TypeNewProblem, TypeSubmissionApproved, TypeSubmissionRejected, TypeNewSubmission:
		return true
	}
	return false
}

func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(strings.ToLower(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	// RoleAll is only meaningful as a broadcast target.
	RoleAll Role = "all"
)

// Valid reports whether r names a user role. RoleAll is not a user role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

func (r Role) ValidTarget() bool {
	return r.Valid() || r == RoleAll
}

// Matches reports whether a connection holding role r receives a broadcast to target.
func (r Role) Matches(target Role) bool {
	return target == RoleAll || target == r
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	if !r.ValidTarget() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Scope targets a notification at exactly one user or one role.
type Scope struct {
	UserID *uuid.UUID
	Role   Role
}

func ForUser(id uuid.UUID) Scope { return Scope{UserID: &id} }

func ForRole(r Role) Scope { return Scope{Role: r} }

func (s Scope) IsUser() bool { return s.UserID != nil }

func (s Scope) Validate() error {
	switch {
	case s.UserID != nil && s.Role != "":
		return ErrInvalidScope
	case s.UserID != nil:
		if *s.UserID == uuid.Nil {
			return ErrInvalidScope
		}
		return nil
	case s.Role != "":
		if !s.Role.ValidTarget() {
			return fmt.Errorf("%w: %w", ErrInvalidScope, ErrInvalidRole)
		}
		return nil
	default:
		return ErrInvalidScope
	}
}

func (s Scope) String() string {
	if s.UserID != nil {
		return "user"
	}
	return "role:" + string(s.Role)
}

// Notification is a durable record scoped to either one user or one role,
// never both. IsRead is shared by every viewer of a role broadcast.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type      Type           `gorm:"column:type;type:text;not null;index" json:"type"`
	Title     string         `gorm:"column:title;type:text;not null" json:"title"`
	Message   string         `gorm:"column:message;type:text;not null" json:"message"`
	ForUserID *uuid.UUID     `gorm:"column:for_user_id;type:uuid;index" json:"for_user_id"`
	ForRole   Role           `gorm:"column:for_role;type:text;index" json:"for_role,omitempty"`
	IsRead    bool           `gorm:"column:is_read;not null;default:false;index" json:"is_read"`
	Meta      datatypes.JSON `gorm:"column:meta;type:jsonb" json:"meta,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) Scope() Scope {
	if n.ForUserID != nil {
		return ForUser(*n.ForUserID)
	}
	return ForRole(n.ForRole)
}

// Draft is the caller-supplied part of a notification.
type Draft struct {
	Type    Type
	Title   string
	Message string
	Meta    map[string]any
}

func (d Draft) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("notification title is required")
	}
	if strings.TrimSpace(d.Message) == "" {
		return errors.New("notification message is required")
	}
	return nil
}

// New materializes a draft for the given scope: fresh id, unread, created now.
func New(scope Scope, d Draft, now time.Time) (*Notification, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	n := &Notification{
		ID:        uuid.New(),
		Type:      d.Type,
		Title:     strings.TrimSpace(d.Title),
		Message:   strings.TrimSpace(d.Message),
		CreatedAt: now.UTC(),
	}
	if scope.UserID != nil {
		id := *scope.UserID
		n.ForUserID = &id
	} else {
		n.ForRole = scope.Role
	}
	if len(d.Meta) > 0 {
		raw, err := json.Marshal(d.Meta)
		if err != nil {
			return nil, fmt.Errorf("encode meta: %w", err)
		}
		n.Meta = datatypes.JSON(raw)
	}
	return n, nil
}

// Filter narrows a catch-up listing.
type Filter struct {
	IsRead *bool
	Type   Type
}
