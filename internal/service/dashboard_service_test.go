package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainhub/training-admin-api/internal/models"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
)

type fakeAggregates struct {
	total        int
	byConductor  map[string]int
	top          []models.Session
	byStatus     map[models.SessionStatus][]models.Session
	upcomingSelf []models.Session

	topLimit   int
	upcomingAt time.Time
}

func (f *fakeAggregates) CountAll(context.Context) (int, error) {
	return f.total, nil
}

func (f *fakeAggregates) CountByConductor(_ context.Context, conductorID string) (int, error) {
	return f.byConductor[conductorID], nil
}

func (f *fakeAggregates) TopUpcoming(_ context.Context, now time.Time, limit int) ([]models.Session, error) {
	f.topLimit = limit
	f.upcomingAt = now
	return f.top, nil
}

func (f *fakeAggregates) ListByStatus(_ context.Context, status models.SessionStatus) ([]models.Session, error) {
	return f.byStatus[status], nil
}

func (f *fakeAggregates) UpcomingByConductor(_ context.Context, _ string, _ time.Time) ([]models.Session, error) {
	return f.upcomingSelf, nil
}

type fakeUserCounter struct {
	total int
}

func (f *fakeUserCounter) CountAll(context.Context) (int, error) {
	return f.total, nil
}

type fakeTopicLister struct {
	topics []models.LearningTopic
	limit  int
}

func (f *fakeTopicLister) Latest(_ context.Context, limit int) ([]models.LearningTopic, error) {
	f.limit = limit
	return f.topics, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.entries = map[string][]byte{}
	return nil
}

func dashboardFixture() (*fakeAggregates, *fakeUserCounter, *fakeTopicLister) {
	future := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	sessions := &fakeAggregates{
		total:       12,
		byConductor: map[string]int{"u1": 4},
		top: []models.Session{
			{ID: "s1", Topic: "Go Fundamentals", Date: future, Status: models.StatusScheduled},
			{ID: "s2", Topic: "Kubernetes Basics", Date: future.AddDate(0, 0, 1), Status: models.StatusScheduled},
			{ID: "s3", Topic: "SQL Tuning", Date: future.AddDate(0, 0, 2), Status: models.StatusScheduled},
		},
		byStatus: map[models.SessionStatus][]models.Session{
			models.StatusCompleted: {{ID: "s4", Status: models.StatusCompleted}},
			models.StatusPending:   {{ID: "s5", Status: models.StatusPending}},
			models.StatusCancelled: {{ID: "s6", Status: models.StatusCancelled, CancelledReason: "room conflict"}},
		},
		upcomingSelf: []models.Session{
			{ID: "s7", Topic: "Own Talk", Date: future, Status: models.StatusScheduled},
		},
	}
	users := &fakeUserCounter{total: 30}
	topics := &fakeTopicLister{topics: []models.LearningTopic{{ID: "t1", ComingSoon: "Rust Workshop"}}}
	return sessions, users, topics
}

func newDashboard(sessions *fakeAggregates, users *fakeUserCounter, topics *fakeTopicLister, cache *CacheService) *DashboardService {
	svc := NewDashboardService(DashboardServiceParams{
		Sessions: sessions,
		Users:    users,
		Topics:   topics,
		Cache:    cache,
		Config:   DashboardServiceConfig{TopSessionsLimit: 3, LearningTopicsMax: 5},
	})
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestStaffDashboardComposition(t *testing.T) {
	sessions, users, topics := dashboardFixture()
	svc := newDashboard(sessions, users, topics, nil)

	payload, cached, err := svc.Build(context.Background(), models.Caller{ID: "staff-1", IsStaff: true})
	require.NoError(t, err)
	assert.False(t, cached)
	require.NotNil(t, payload.Staff)
	assert.Nil(t, payload.Self)

	staff := payload.Staff
	assert.Equal(t, 30, staff.TotalUsers)
	assert.Equal(t, 12, staff.TotalSessions)
	assert.Len(t, staff.TopSessions, 3)
	assert.Equal(t, "s1", staff.TopSessions[0].ID)
	assert.Len(t, staff.Completed, 1)
	assert.Len(t, staff.Pending, 1)
	assert.Len(t, staff.Cancelled, 1)
	assert.Equal(t, "room conflict", staff.Cancelled[0].CancelledReason)
	require.Len(t, staff.LearningTopics, 1)
	assert.Equal(t, "Rust Workshop", staff.LearningTopics[0].ComingSoon)

	assert.Equal(t, 3, sessions.topLimit)
	assert.Equal(t, 5, topics.limit)
}

func TestSelfDashboardComposition(t *testing.T) {
	sessions, users, topics := dashboardFixture()
	svc := newDashboard(sessions, users, topics, nil)

	payload, _, err := svc.Build(context.Background(), models.Caller{ID: "u1"})
	require.NoError(t, err)
	require.NotNil(t, payload.Self)
	assert.Nil(t, payload.Staff)
	assert.Equal(t, 4, payload.Self.TotalSessions)
	require.Len(t, payload.Self.UpcomingSessions, 1)
	assert.Equal(t, "Own Talk", payload.Self.UpcomingSessions[0].Topic)
}

func TestDashboardUsesClockForPastDue(t *testing.T) {
	sessions, users, topics := dashboardFixture()
	sessions.byStatus[models.StatusPending] = nil
	past := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	sessions.top = []models.Session{{ID: "late", Date: past, Status: models.StatusScheduled}}
	svc := newDashboard(sessions, users, topics, nil)

	payload, _, err := svc.Build(context.Background(), models.Caller{ID: "staff-1", IsStaff: true})
	require.NoError(t, err)
	require.Len(t, payload.Staff.TopSessions, 1)
	assert.True(t, payload.Staff.TopSessions[0].PastDue)
}

func TestDashboardCachesPerScope(t *testing.T) {
	sessions, users, topics := dashboardFixture()
	cacheRepo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := newDashboard(sessions, users, topics, cacheSvc)

	staff := models.Caller{ID: "staff-1", IsStaff: true}
	_, cached, err := svc.Build(context.Background(), staff)
	require.NoError(t, err)
	assert.False(t, cached)

	payload, cached, err := svc.Build(context.Background(), staff)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 30, payload.Staff.TotalUsers)

	// A different caller scope misses the staff entry.
	_, cached, err = svc.Build(context.Background(), models.Caller{ID: "u1"})
	require.NoError(t, err)
	assert.False(t, cached)

	svc.Invalidate(context.Background())
	_, cached, err = svc.Build(context.Background(), staff)
	require.NoError(t, err)
	assert.False(t, cached)
}
