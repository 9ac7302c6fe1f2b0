package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trainhub/training-admin-api/internal/models"
)

// LearningTopicRepository provides database access for curated learning
// topics.
type LearningTopicRepository struct {
	db *sqlx.DB
}

// NewLearningTopicRepository creates a new instance of LearningTopicRepository.
func NewLearningTopicRepository(db *sqlx.DB) *LearningTopicRepository {
	return &LearningTopicRepository{db: db}
}

// List returns a page of learning topics, newest first.
func (r *LearningTopicRepository) List(ctx context.Context, filter models.LearningTopicFilter) ([]models.LearningTopic, *models.Pagination, error) {
	base := `FROM learning_topics WHERE 1=1`
	var args []interface{}
	if filter.ActiveOnly {
		base += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, true)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, nil, fmt.Errorf("count learning topics: %w", err)
	}

	pagination := models.NewPagination(filter.Page, filter.PageSize, total)
	query := fmt.Sprintf("SELECT id, coming_soon, url, active, created_at %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		base, pagination.PageSize, pagination.Offset())

	var topics []models.LearningTopic
	if err := r.db.SelectContext(ctx, &topics, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list learning topics: %w", err)
	}
	return topics, pagination, nil
}

// Latest returns the most recent active topics, bounded by limit.
func (r *LearningTopicRepository) Latest(ctx context.Context, limit int) ([]models.LearningTopic, error) {
	const query = `SELECT id, coming_soon, url, active, created_at FROM learning_topics
WHERE active = TRUE ORDER BY created_at DESC, id DESC LIMIT $1`
	var topics []models.LearningTopic
	if err := r.db.SelectContext(ctx, &topics, query, limit); err != nil {
		return nil, fmt.Errorf("latest learning topics: %w", err)
	}
	return topics, nil
}

// GetByID returns a learning topic by identifier.
func (r *LearningTopicRepository) GetByID(ctx context.Context, id string) (*models.LearningTopic, error) {
	const query = `SELECT id, coming_soon, url, active, created_at FROM learning_topics WHERE id = $1 LIMIT 1`
	var topic models.LearningTopic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find learning topic by id: %w", err)
	}
	return &topic, nil
}

// Create inserts a new learning topic.
func (r *LearningTopicRepository) Create(ctx context.Context, topic *models.LearningTopic) error {
	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO learning_topics (id, coming_soon, url, active, created_at)
VALUES (:id, :coming_soon, :url, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("create learning topic: %w", err)
	}
	return nil
}

// Update persists learning topic fields.
func (r *LearningTopicRepository) Update(ctx context.Context, topic *models.LearningTopic) error {
	const query = `UPDATE learning_topics SET coming_soon = :coming_soon, url = :url, active = :active WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("update learning topic: %w", err)
	}
	return nil
}

// Delete removes a learning topic record.
func (r *LearningTopicRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM learning_topics WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete learning topic: %w", err)
	}
	return nil
}
