package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to SessionStatus
		want     bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusPending, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusPending, StatusScheduled, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusCompleted, StatusScheduled, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCancelled, StatusPending, false},
		{StatusScheduled, StatusScheduled, true},
		{StatusCompleted, StatusCompleted, true},
		{StatusCancelled, StatusCancelled, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusScheduled.Valid())
	assert.False(t, SessionStatus("archived").Valid())
	assert.False(t, SessionStatus("").Valid())
}

func TestPastDueIsDerived(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	past := Session{Status: StatusScheduled, Date: now.Add(-time.Hour)}
	assert.True(t, past.PastDue(now))

	future := Session{Status: StatusScheduled, Date: now.Add(time.Hour)}
	assert.False(t, future.PastDue(now))

	// Only scheduled sessions can be past due.
	completed := Session{Status: StatusCompleted, Date: now.Add(-time.Hour)}
	assert.False(t, completed.PastDue(now))

	cancelled := Session{Status: StatusCancelled, Date: now.Add(-time.Hour)}
	assert.False(t, cancelled.PastDue(now))
}
