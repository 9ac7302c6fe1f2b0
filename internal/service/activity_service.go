package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trainhub/training-admin-api/internal/models"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
)

type activityStore interface {
	Insert(ctx context.Context, activities []models.Activity) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Activity, error)
	MarkRead(ctx context.Context, userID string) error
	UnreadCountSince(ctx context.Context, userID string, since time.Time) (int, error)
}

type recipientLister interface {
	ListIDsByStaff(ctx context.Context, isStaff bool) ([]string, error)
}

// ActivityService records mutation events into per-user activity feeds and
// serves the recent-activity and badge-count views. Recording is
// best-effort: failures are logged and never surfaced to the caller.
type ActivityService struct {
	store      activityStore
	recipients recipientLister
	logger     *zap.Logger
	now        func() time.Time
	feedLimit  int
}

// NewActivityService constructs the service.
func NewActivityService(store activityStore, recipients recipientLister, feedLimit int, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if feedLimit <= 0 {
		feedLimit = 20
	}
	return &ActivityService{
		store:      store,
		recipients: recipients,
		logger:     logger,
		now:        time.Now,
		feedLimit:  feedLimit,
	}
}

// Record fans an event out to the opposite role: staff actions notify
// non-staff users, non-staff actions notify staff. Errors are swallowed.
func (s *ActivityService) Record(ctx context.Context, event models.ActivityEvent) {
	if s == nil || s.store == nil {
		return
	}
	ids, err := s.recipients.ListIDsByStaff(ctx, !event.Actor.IsStaff)
	if err != nil {
		s.logger.Warn("activity recipients lookup failed", zap.Error(err))
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}

	description := event.Description
	if !event.Actor.IsStaff {
		description = fmt.Sprintf("%s - %s", event.Actor.ID, event.Description)
	}

	activities := make([]models.Activity, 0, len(ids))
	for _, id := range ids {
		activities = append(activities, models.Activity{
			UserID:      id,
			ActorID:     event.Actor.ID,
			Action:      event.Action,
			Entity:      event.Entity,
			EntityID:    event.EntityID,
			Description: description,
			CreatedAt:   event.Timestamp,
		})
	}
	if err := s.store.Insert(ctx, activities); err != nil {
		s.logger.Warn("activity record failed",
			zap.String("entity", event.Entity),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}

// Recent returns the caller's latest activities and marks them read.
func (s *ActivityService) Recent(ctx context.Context, caller models.Caller) ([]models.Activity, error) {
	activities, err := s.store.ListByUser(ctx, caller.ID, s.feedLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	if err := s.store.MarkRead(ctx, caller.ID); err != nil {
		s.logger.Warn("mark activities read failed", zap.String("user_id", caller.ID), zap.Error(err))
	}
	return activities, nil
}

// UnreadCount returns the number of unread activities created today.
func (s *ActivityService) UnreadCount(ctx context.Context, caller models.Caller) (int, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := s.store.UnreadCountSince(ctx, caller.ID, midnight)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread activities")
	}
	return count, nil
}
