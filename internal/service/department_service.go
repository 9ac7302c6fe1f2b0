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

type departmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	GetByID(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id string) error
}

// DepartmentService manages the department filter dimension.
type DepartmentService struct {
	repo       departmentRepository
	activities activityRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewDepartmentService constructs the service.
func NewDepartmentService(repo departmentRepository, activities activityRecorder, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{repo: repo, activities: activities, validator: validate, logger: logger, now: time.Now}
}

// DepartmentRequest is the create/update payload.
type DepartmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// List returns all departments.
func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	departments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// Create registers a new department. Staff only.
func (s *DepartmentService) Create(ctx context.Context, caller models.Caller, req DepartmentRequest) (*models.Department, error) {
	if !caller.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may manage departments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	department := &models.Department{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionCreate,
		Entity:      "department",
		EntityID:    department.ID,
		Description: fmt.Sprintf("Created department '%s'.", department.Name),
		Timestamp:   s.now().UTC(),
	})
	return department, nil
}

// Update edits a department. Staff only.
func (s *DepartmentService) Update(ctx context.Context, caller models.Caller, id string, req DepartmentRequest) (*models.Department, error) {
	if !caller.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may manage departments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	department, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get department")
	}

	department.Name = strings.TrimSpace(req.Name)
	department.Description = strings.TrimSpace(req.Description)
	if err := s.repo.Update(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionUpdate,
		Entity:      "department",
		EntityID:    department.ID,
		Description: fmt.Sprintf("Edited department '%s'.", department.Name),
		Timestamp:   s.now().UTC(),
	})
	return department, nil
}

// Delete removes a department. Staff only.
func (s *DepartmentService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsStaff {
		return appErrors.Clone(appErrors.ErrForbidden, "only staff may manage departments")
	}
	department, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get department")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionDelete,
		Entity:      "department",
		EntityID:    id,
		Description: fmt.Sprintf("Deleted department '%s'.", department.Name),
		Timestamp:   s.now().UTC(),
	})
	return nil
}
