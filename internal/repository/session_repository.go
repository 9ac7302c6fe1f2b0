package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trainhub/training-admin-api/internal/models"
)

const sessionColumns = `s.id, s.topic, s.date, s.place, s.conducted_by, TRIM(u.first_name || ' ' || u.last_name) AS conductor_name, s.status, s.cancelled_reason, s.created_at, s.updated_at`

// SessionRepository provides database access for training sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns a page of sessions for the given filter. The requested page
// is clamped into the valid range, so an out-of-range page returns the last
// page instead of failing.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	base := `FROM sessions s JOIN users u ON u.id = s.conducted_by WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ConductedBy != "" {
		conditions = append(conditions, fmt.Sprintf("s.conducted_by = $%d", len(args)+1))
		args = append(args, filter.ConductedBy)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("u.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(
			"(s.topic ILIKE $%d OR s.place ILIKE $%d OR s.status ILIKE $%d OR s.cancelled_reason ILIKE $%d OR u.first_name ILIKE $%d OR u.last_name ILIKE $%d)",
			n, n, n, n, n, n))
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) " + base
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, nil, fmt.Errorf("count sessions: %w", err)
	}

	order := "s.date ASC, s.id ASC"
	if filter.Order == models.SortHistory {
		order = "s.date DESC, s.id ASC"
	}

	pagination := models.NewPagination(filter.Page, filter.PageSize, total)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d",
		sessionColumns, base, order, pagination.PageSize, pagination.Offset())

	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, pagination, nil
}

// GetByID returns a session by identifier.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions s JOIN users u ON u.id = s.conducted_by WHERE s.id = $1 LIMIT 1`, sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return &session, nil
}

// FindByTopicAndConductor returns the session matching a topic/conductor
// pair, used by the spreadsheet import to decide create versus update.
func (r *SessionRepository) FindByTopicAndConductor(ctx context.Context, topic, conductorID string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions s JOIN users u ON u.id = s.conducted_by WHERE s.topic = $1 AND s.conducted_by = $2 LIMIT 1`, sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, topic, conductorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session by topic and conductor: %w", err)
	}
	return &session, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO sessions (id, topic, date, place, conducted_by, status, cancelled_reason, created_at, updated_at)
VALUES (:id, :topic, :date, :place, :conducted_by, :status, :cancelled_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update persists mutable session fields.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET topic = :topic, date = :date, place = :place, conducted_by = :conducted_by,
status = :status, cancelled_reason = :cancelled_reason, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session record.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sessions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CountAll returns the total number of sessions.
func (r *SessionRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sessions`); err != nil {
		return 0, fmt.Errorf("count all sessions: %w", err)
	}
	return total, nil
}

// CountByConductor returns how many sessions a user conducts.
func (r *SessionRepository) CountByConductor(ctx context.Context, conductorID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sessions WHERE conducted_by = $1`, conductorID); err != nil {
		return 0, fmt.Errorf("count sessions by conductor: %w", err)
	}
	return total, nil
}

// TopUpcoming returns the next scheduled future sessions ordered by date
// then id, bounded by limit.
func (r *SessionRepository) TopUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions s JOIN users u ON u.id = s.conducted_by
WHERE s.status = $1 AND s.date > $2 ORDER BY s.date ASC, s.id ASC LIMIT $3`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, models.StatusScheduled, now, limit); err != nil {
		return nil, fmt.Errorf("top upcoming sessions: %w", err)
	}
	return sessions, nil
}

// ListByStatus returns every session in the given status, newest first.
func (r *SessionRepository) ListByStatus(ctx context.Context, status models.SessionStatus) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions s JOIN users u ON u.id = s.conducted_by
WHERE s.status = $1 ORDER BY s.date DESC, s.id ASC`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, status); err != nil {
		return nil, fmt.Errorf("list sessions by status: %w", err)
	}
	return sessions, nil
}

// UpcomingByConductor returns the conductor's scheduled future sessions in
// date order, unbounded.
func (r *SessionRepository) UpcomingByConductor(ctx context.Context, conductorID string, now time.Time) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions s JOIN users u ON u.id = s.conducted_by
WHERE s.conducted_by = $1 AND s.status = $2 AND s.date > $3 ORDER BY s.date ASC, s.id ASC`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, conductorID, models.StatusScheduled, now); err != nil {
		return nil, fmt.Errorf("upcoming sessions by conductor: %w", err)
	}
	return sessions, nil
}

// ListScheduledOrdered returns all scheduled sessions by ascending date,
// used by the spreadsheet export.
func (r *SessionRepository) ListScheduledOrdered(ctx context.Context) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions s JOIN users u ON u.id = s.conducted_by
WHERE s.status = $1 ORDER BY s.date ASC, s.id ASC`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, models.StatusScheduled); err != nil {
		return nil, fmt.Errorf("list scheduled sessions: %w", err)
	}
	return sessions, nil
}
