package dto

import (
	"time"

	"github.com/trainhub/training-admin-api/internal/models"
)

// SessionSummary is the dashboard projection of a session.
type SessionSummary struct {
	ID              string               `json:"id"`
	Topic           string               `json:"topic"`
	Date            time.Time            `json:"date"`
	Place           string               `json:"place,omitempty"`
	ConductorName   string               `json:"conductor_name,omitempty"`
	Status          models.SessionStatus `json:"status"`
	CancelledReason string               `json:"cancelled_reason,omitempty"`
	PastDue         bool                 `json:"past_due"`
}

// NewSessionSummary projects a session for dashboard display, computing the
// past-due classification against the supplied clock.
func NewSessionSummary(s models.Session, now time.Time) SessionSummary {
	return SessionSummary{
		ID:              s.ID,
		Topic:           s.Topic,
		Date:            s.Date,
		Place:           s.Place,
		ConductorName:   s.ConductorName,
		Status:          s.Status,
		CancelledReason: s.CancelledReason,
		PastDue:         s.PastDue(now),
	}
}

// LearningTopicSummary is the coming-soon entry shown on the dashboard.
type LearningTopicSummary struct {
	ID         string `json:"id"`
	ComingSoon string `json:"coming_soon"`
	URL        string `json:"url,omitempty"`
}

// StaffDashboardResponse aggregates the full session set for staff callers.
type StaffDashboardResponse struct {
	TotalUsers     int                    `json:"total_users"`
	TotalSessions  int                    `json:"total_sessions"`
	TopSessions    []SessionSummary       `json:"top_sessions"`
	Completed      []SessionSummary       `json:"completed"`
	Pending        []SessionSummary       `json:"pending"`
	Cancelled      []SessionSummary       `json:"cancelled"`
	LearningTopics []LearningTopicSummary `json:"learning_topics"`
}

// SelfDashboardResponse covers the non-staff view: only the caller's own
// sessions, with no cross-user aggregates.
type SelfDashboardResponse struct {
	TotalSessions    int              `json:"total_sessions"`
	UpcomingSessions []SessionSummary `json:"upcoming_sessions"`
}

// DashboardResponse is the role-dispatched dashboard payload; exactly one
// of Staff or Self is populated.
type DashboardResponse struct {
	Staff *StaffDashboardResponse `json:"staff,omitempty"`
	Self  *SelfDashboardResponse  `json:"self,omitempty"`
}
