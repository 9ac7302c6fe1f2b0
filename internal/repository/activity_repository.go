package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trainhub/training-admin-api/internal/models"
)

// ActivityRepository persists activity feed entries.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new instance of ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert stores a batch of activities, one per recipient.
func (r *ActivityRepository) Insert(ctx context.Context, activities []models.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range activities {
		if activities[i].ID == "" {
			activities[i].ID = uuid.NewString()
		}
		if activities[i].CreatedAt.IsZero() {
			activities[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO activities (id, user_id, actor_id, action, entity, entity_id, description, read, created_at)
VALUES (:id, :user_id, :actor_id, :action, :entity, :entity_id, :description, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activities); err != nil {
		return fmt.Errorf("insert activities: %w", err)
	}
	return nil
}

// ListByUser returns the most recent activities addressed to a user.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	const query = `SELECT id, user_id, actor_id, action, entity, entity_id, description, read, created_at
FROM activities WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// MarkRead flags all of a user's unread activities as read.
func (r *ActivityRepository) MarkRead(ctx context.Context, userID string) error {
	const query = `UPDATE activities SET read = TRUE WHERE user_id = $1 AND read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("mark activities read: %w", err)
	}
	return nil
}

// UnreadCountSince counts unread activities created at or after the cutoff,
// feeding the notification badge.
func (r *ActivityRepository) UnreadCountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM activities WHERE user_id = $1 AND read = FALSE AND created_at >= $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, since); err != nil {
		return 0, fmt.Errorf("count unread activities: %w", err)
	}
	return count, nil
}
