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
	"golang.org/x/crypto/bcrypt"

	"github.com/trainhub/training-admin-api/internal/models"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type departmentResolver interface {
	GetByID(ctx context.Context, id string) (*models.Department, error)
}

type sessionCounter interface {
	CountByConductor(ctx context.Context, conductorID string) (int, error)
}

// UserService manages user accounts. All operations are staff-only; the
// handler boundary enforces this too, but the service re-checks so no other
// entry point can bypass it.
type UserService struct {
	repo        userRepository
	departments departmentResolver
	sessions    sessionCounter
	activities  activityRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	pageSize    int
	maxPageSize int
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, departments departmentResolver, sessions sessionCounter, activities activityRecorder, validate *validator.Validate, pageSize, maxPageSize int, logger *zap.Logger) *UserService {
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
	return &UserService{
		repo:        repo,
		departments: departments,
		sessions:    sessions,
		activities:  activities,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
	}
}

// UserListRequest describes filters for listing users.
type UserListRequest struct {
	DepartmentID string `json:"department_id"`
	Search       string `json:"search"`
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
}

// CreateUserRequest describes the create payload.
type CreateUserRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name"`
	Password     string  `json:"password" validate:"required,min=8"`
	IsStaff      bool    `json:"is_staff"`
	DepartmentID *string `json:"department_id"`
}

// UpdateUserRequest describes the update payload.
type UpdateUserRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name"`
	IsStaff      bool    `json:"is_staff"`
	DepartmentID *string `json:"department_id"`
}

// List returns a page of users ordered by name then id. Staff only.
func (s *UserService) List(ctx context.Context, caller models.Caller, req UserListRequest) ([]models.User, *models.Pagination, error) {
	if !caller.IsStaff {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may list users")
	}
	filter := models.UserFilter{
		DepartmentID: req.DepartmentID,
		Search:       req.Search,
		Page:         req.Page,
		PageSize:     req.PageSize,
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.pageSize
	} else if filter.PageSize > s.maxPageSize {
		filter.PageSize = s.maxPageSize
	}
	users, pagination, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, pagination, nil
}

// Get returns a user by id. Staff only.
func (s *UserService) Get(ctx context.Context, caller models.Caller, id string) (*models.User, error) {
	if !caller.IsStaff && caller.ID != id {
		return nil, appErrors.ErrForbidden
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get user")
	}
	return user, nil
}

// Create registers a new user account. Staff only.
func (s *UserService) Create(ctx context.Context, caller models.Caller, req CreateUserRequest) (*models.User, error) {
	if !caller.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may create users")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if err := s.ensureDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: string(hash),
		IsStaff:      req.IsStaff,
		DepartmentID: req.DepartmentID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionCreate,
		Entity:      "user",
		EntityID:    user.ID,
		Description: fmt.Sprintf("Added new user '%s'.", user.Email),
		Timestamp:   s.now().UTC(),
	})
	return user, nil
}

// Update edits a user's profile fields. Staff only.
func (s *UserService) Update(ctx context.Context, caller models.Caller, id string, req UpdateUserRequest) (*models.User, error) {
	if !caller.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may edit users")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	user, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.IsStaff = req.IsStaff
	user.DepartmentID = req.DepartmentID
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionUpdate,
		Entity:      "user",
		EntityID:    user.ID,
		Description: fmt.Sprintf("Edited profile of '%s'.", user.Email),
		Timestamp:   s.now().UTC(),
	})
	return user, nil
}

// Delete removes a user account. Staff accounts cannot be deleted, and a
// user still conducting sessions is refused rather than cascaded or
// nulled out, so training history stays intact.
func (s *UserService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsStaff {
		return appErrors.Clone(appErrors.ErrForbidden, "only staff may delete users")
	}
	user, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if user.IsStaff {
		return appErrors.Clone(appErrors.ErrConstraint, "staff accounts cannot be deleted")
	}
	count, err := s.sessions.CountByConductor(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user sessions")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConstraint,
			fmt.Sprintf("user conducts %d session(s); reassign them before deleting", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionDelete,
		Entity:      "user",
		EntityID:    id,
		Description: fmt.Sprintf("Deleted user '%s'.", user.Email),
		Timestamp:   s.now().UTC(),
	})
	return nil
}

func (s *UserService) ensureDepartment(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	if _, err := s.departments.GetByID(ctx, *id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve department")
	}
	return nil
}
