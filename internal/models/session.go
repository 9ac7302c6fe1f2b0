package models

import "time"

// SessionStatus enumerates the lifecycle states of a training session.
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusCompleted SessionStatus = "completed"
	StatusPending   SessionStatus = "pending"
	StatusCancelled SessionStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a session may move from one status to
// another. Scheduled sessions may complete, go pending, or be cancelled;
// pending sessions may move to any other state; completed and cancelled are
// terminal. Writing the current status back is always allowed.
func CanTransition(from, to SessionStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusScheduled, StatusPending:
		return to.Valid()
	default:
		return false
	}
}

// Session represents a scheduled training event owned by one conductor.
type Session struct {
	ID              string        `db:"id" json:"id"`
	Topic           string        `db:"topic" json:"topic"`
	Date            time.Time     `db:"date" json:"date"`
	Place           string        `db:"place" json:"place"`
	ConductedBy     string        `db:"conducted_by" json:"conducted_by"`
	ConductorName   string        `db:"conductor_name" json:"conductor_name,omitempty"`
	Status          SessionStatus `db:"status" json:"status"`
	CancelledReason string        `db:"cancelled_reason" json:"cancelled_reason,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// PastDue reports whether a scheduled session's date has elapsed without an
// explicit completion. This is a derived classification, never stored.
func (s *Session) PastDue(now time.Time) bool {
	return s.Status == StatusScheduled && s.Date.Before(now)
}

// SessionSortOrder selects between the upcoming (date ascending) and
// history (date descending) list views.
type SessionSortOrder string

const (
	SortUpcoming SessionSortOrder = "upcoming"
	SortHistory  SessionSortOrder = "history"
)

// SessionFilter captures filtering criteria for listing sessions.
type SessionFilter struct {
	ConductedBy  string
	DepartmentID string
	Status       *SessionStatus
	Search       string
	Order        SessionSortOrder
	Page         int
	PageSize     int
}
