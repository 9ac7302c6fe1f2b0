package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainhub/training-admin-api/internal/models"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
)

type fakeTopicRepo struct {
	topics     map[string]*models.LearningTopic
	lastFilter models.LearningTopicFilter
	deleted    []string
}

func newFakeTopicRepo(topics ...*models.LearningTopic) *fakeTopicRepo {
	repo := &fakeTopicRepo{topics: map[string]*models.LearningTopic{}}
	for _, topic := range topics {
		repo.topics[topic.ID] = topic
	}
	return repo
}

func (f *fakeTopicRepo) List(_ context.Context, filter models.LearningTopicFilter) ([]models.LearningTopic, *models.Pagination, error) {
	f.lastFilter = filter
	var all []models.LearningTopic
	for _, topic := range f.topics {
		all = append(all, *topic)
	}
	return all, models.NewPagination(filter.Page, filter.PageSize, len(all)), nil
}

func (f *fakeTopicRepo) GetByID(_ context.Context, id string) (*models.LearningTopic, error) {
	topic, ok := f.topics[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *topic
	return &copied, nil
}

func (f *fakeTopicRepo) Create(_ context.Context, topic *models.LearningTopic) error {
	if topic.ID == "" {
		topic.ID = "generated"
	}
	f.topics[topic.ID] = topic
	return nil
}

func (f *fakeTopicRepo) Update(_ context.Context, topic *models.LearningTopic) error {
	f.topics[topic.ID] = topic
	return nil
}

func (f *fakeTopicRepo) Delete(_ context.Context, id string) error {
	delete(f.topics, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func newTopicSvc(repo *fakeTopicRepo) (*LearningTopicService, *fakeRecorder) {
	recorder := &fakeRecorder{}
	return NewLearningTopicService(repo, recorder, nil, 10, 100, nil), recorder
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestTopicMutationsStaffOnly(t *testing.T) {
	repo := newFakeTopicRepo(&models.LearningTopic{ID: "t1", ComingSoon: "Generics deep dive", Active: true})
	svc, recorder := newTopicSvc(repo)

	_, err := svc.Create(context.Background(), selfCaller, LearningTopicRequest{ComingSoon: "Profiling"})
	assertForbidden(t, err)

	_, err = svc.Update(context.Background(), selfCaller, "t1", LearningTopicRequest{ComingSoon: "Renamed"})
	assertForbidden(t, err)

	err = svc.Delete(context.Background(), selfCaller, "t1")
	assertForbidden(t, err)

	assert.Len(t, repo.topics, 1)
	assert.Equal(t, "Generics deep dive", repo.topics["t1"].ComingSoon)
	assert.Empty(t, recorder.events)
}

func TestTopicCreateDefaultsActive(t *testing.T) {
	repo := newFakeTopicRepo()
	svc, recorder := newTopicSvc(repo)

	topic, err := svc.Create(context.Background(), staffCaller, LearningTopicRequest{ComingSoon: "  Profiling  ", URL: "https://example.com/profiling"})
	require.NoError(t, err)
	assert.True(t, topic.Active)
	assert.Equal(t, "Profiling", topic.ComingSoon)
	require.Len(t, recorder.events, 1)
	assert.Equal(t, models.ActionCreate, recorder.events[0].Action)
}

func TestTopicDeleteRecordsActivity(t *testing.T) {
	repo := newFakeTopicRepo(&models.LearningTopic{ID: "t1", ComingSoon: "Generics deep dive"})
	svc, recorder := newTopicSvc(repo)

	require.NoError(t, svc.Delete(context.Background(), staffCaller, "t1"))
	assert.Equal(t, []string{"t1"}, repo.deleted)
	require.Len(t, recorder.events, 1)
	assert.Equal(t, models.ActionDelete, recorder.events[0].Action)
}

func TestTopicListCapsRequestedPageSize(t *testing.T) {
	repo := newFakeTopicRepo()
	svc, _ := newTopicSvc(repo)

	_, _, err := svc.List(context.Background(), 1, 1000000, false)
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastFilter.PageSize)

	_, _, err = svc.List(context.Background(), 1, 0, true)
	require.NoError(t, err)
	assert.Equal(t, 10, repo.lastFilter.PageSize)
	assert.True(t, repo.lastFilter.ActiveOnly)
}
