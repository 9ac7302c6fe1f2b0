package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/trainhub/training-admin-api/internal/models"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
)

type learningTopicRepository interface {
	List(ctx context.Context, filter models.LearningTopicFilter) ([]models.LearningTopic, *models.Pagination, error)
	GetByID(ctx context.Context, id string) (*models.LearningTopic, error)
	Create(ctx context.Context, topic *models.LearningTopic) error
	Update(ctx context.Context, topic *models.LearningTopic) error
	Delete(ctx context.Context, id string) error
}

// LearningTopicService curates the coming-soon learning resources.
type LearningTopicService struct {
	repo        learningTopicRepository
	activities  activityRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	pageSize    int
	maxPageSize int
}

// NewLearningTopicService constructs the service.
func NewLearningTopicService(repo learningTopicRepository, activities activityRecorder, validate *validator.Validate, pageSize, maxPageSize int, logger *zap.Logger) *LearningTopicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &LearningTopicService{repo: repo, activities: activities, validator: validate, logger: logger, now: time.Now, pageSize: pageSize, maxPageSize: maxPageSize}
}

// LearningTopicRequest is the create/update payload.
type LearningTopicRequest struct {
	ComingSoon string `json:"coming_soon" validate:"required"`
	URL        string `json:"url" validate:"omitempty,url"`
	Active     *bool  `json:"active"`
}

// List returns a page of topics, newest first.
func (s *LearningTopicService) List(ctx context.Context, page, pageSize int, activeOnly bool) ([]models.LearningTopic, *models.Pagination, error) {
	filter := models.LearningTopicFilter{ActiveOnly: activeOnly, Page: page, PageSize: pageSize}
	if filter.PageSize <= 0 {
		filter.PageSize = s.pageSize
	} else if filter.PageSize > s.maxPageSize {
		filter.PageSize = s.maxPageSize
	}
	topics, pagination, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list learning topics")
	}
	return topics, pagination, nil
}

// Create registers a new coming-soon entry. Staff only.
func (s *LearningTopicService) Create(ctx context.Context, caller models.Caller, req LearningTopicRequest) (*models.LearningTopic, error) {
	if !caller.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may manage learning topics")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	topic := &models.LearningTopic{
		ComingSoon: strings.TrimSpace(req.ComingSoon),
		URL:        strings.TrimSpace(req.URL),
		Active:     true,
	}
	if req.Active != nil {
		topic.Active = *req.Active
	}
	if err := s.repo.Create(ctx, topic); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create learning topic")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionCreate,
		Entity:      "learning_topic",
		EntityID:    topic.ID,
		Description: fmt.Sprintf("Added new learning topic '%s'.", topic.ComingSoon),
		Timestamp:   s.now().UTC(),
	})
	return topic, nil
}

// Update edits a coming-soon entry. Staff only.
func (s *LearningTopicService) Update(ctx context.Context, caller models.Caller, id string, req LearningTopicRequest) (*models.LearningTopic, error) {
	if !caller.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may manage learning topics")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	topic, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learning topic not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get learning topic")
	}

	topic.ComingSoon = strings.TrimSpace(req.ComingSoon)
	topic.URL = strings.TrimSpace(req.URL)
	if req.Active != nil {
		topic.Active = *req.Active
	}
	if err := s.repo.Update(ctx, topic); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update learning topic")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionUpdate,
		Entity:      "learning_topic",
		EntityID:    topic.ID,
		Description: fmt.Sprintf("Updated learning topic '%s'.", topic.ComingSoon),
		Timestamp:   s.now().UTC(),
	})
	return topic, nil
}

// Delete removes a coming-soon entry. Staff only.
func (s *LearningTopicService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsStaff {
		return appErrors.Clone(appErrors.ErrForbidden, "only staff may manage learning topics")
	}
	topic, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "learning topic not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get learning topic")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete learning topic")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionDelete,
		Entity:      "learning_topic",
		EntityID:    id,
		Description: fmt.Sprintf("Deleted learning topic '%s'.", topic.ComingSoon),
		Timestamp:   s.now().UTC(),
	})
	return nil
}
