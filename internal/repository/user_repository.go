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

const userColumns = `id, email, first_name, last_name, password_hash, is_staff, department_id, created_at, updated_at`

// UserRepository provides database access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByFullName resolves a user from "First Last", used by the spreadsheet
// import where rows carry display names rather than ids.
func (r *UserRepository) FindByFullName(ctx context.Context, firstName, lastName string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(first_name) = $1 AND LOWER(last_name) = $2 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(firstName), strings.ToLower(lastName)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by full name: %w", err)
	}
	return &user, nil
}

// List returns a page of users ordered by name then id, optionally narrowed
// to one department. Out-of-range pages clamp to the last valid page.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	base := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d)", n, n, n))
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(filter.Search))+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, nil, fmt.Errorf("count users: %w", err)
	}

	pagination := models.NewPagination(filter.Page, filter.PageSize, total)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY first_name ASC, last_name ASC, id ASC LIMIT %d OFFSET %d",
		userColumns, base, pagination.PageSize, pagination.Offset())

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}

	return users, pagination, nil
}

// CountAll returns the total number of user accounts.
func (r *UserRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count all users: %w", err)
	}
	return total, nil
}

// ListIDsByStaff returns the ids of all users matching the staff flag, used
// to fan out activity notifications.
func (r *UserRepository) ListIDsByStaff(ctx context.Context, isStaff bool) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users WHERE is_staff = $1 ORDER BY id`, isStaff); err != nil {
		return nil, fmt.Errorf("list user ids by staff flag: %w", err)
	}
	return ids, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, first_name, last_name, password_hash, is_staff, department_id, created_at, updated_at)
VALUES (:id, :email, :first_name, :last_name, :password_hash, :is_staff, :department_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update persists mutable fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET email = :email, first_name = :first_name, last_name = :last_name,
is_staff = :is_staff, department_id = :department_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete removes a user record. Referential checks happen in the service.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
