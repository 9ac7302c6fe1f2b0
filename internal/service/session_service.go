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

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	FindByTopicAndConductor(ctx context.Context, topic, conductorID string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

type conductorResolver interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type activityRecorder interface {
	Record(ctx context.Context, event models.ActivityEvent)
}

// SessionService owns the session lifecycle: creation, field edits, status
// transitions and deletion, plus the role-scoped session listing.
type SessionService struct {
	repo        sessionRepository
	users       conductorResolver
	activities  activityRecorder
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	pageSize    int
	maxPageSize int
}

// NewSessionService constructs the service.
func NewSessionService(repo sessionRepository, users conductorResolver, activities activityRecorder, validate *validator.Validate, pageSize, maxPageSize int, logger *zap.Logger) *SessionService {
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
	return &SessionService{
		repo:        repo,
		users:       users,
		activities:  activities,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
	}
}

// SessionListRequest describes filters for listing sessions.
type SessionListRequest struct {
	Status       string `json:"status"`
	DepartmentID string `json:"department_id"`
	Search       string `json:"search"`
	Order        string `json:"order"`
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
}

// CreateSessionRequest describes the create payload.
type CreateSessionRequest struct {
	Topic       string    `json:"topic" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Place       string    `json:"place"`
	ConductedBy string    `json:"conducted_by" validate:"required"`
}

// UpdateSessionRequest describes the update payload; nil fields are left
// untouched.
type UpdateSessionRequest struct {
	Topic           *string    `json:"topic"`
	Date            *time.Time `json:"date"`
	Place           *string    `json:"place"`
	ConductedBy     *string    `json:"conducted_by"`
	Status          *string    `json:"status"`
	CancelledReason *string    `json:"cancelled_reason"`
}

// List returns a page of sessions scoped to the caller's role: staff see
// everything (optionally narrowed by department via the conductor), other
// callers are pinned to their own sessions.
func (s *SessionService) List(ctx context.Context, caller models.Caller, req SessionListRequest) ([]models.Session, *models.Pagination, error) {
	filter := models.SessionFilter{
		Search:   strings.TrimSpace(req.Search),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.pageSize
	} else if filter.PageSize > s.maxPageSize {
		filter.PageSize = s.maxPageSize
	}
	if req.Status != "" {
		status := models.SessionStatus(strings.ToLower(req.Status))
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
		}
		filter.Status = &status
	}
	switch req.Order {
	case "", string(models.SortUpcoming):
		filter.Order = models.SortUpcoming
	case string(models.SortHistory):
		filter.Order = models.SortHistory
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown order %q", req.Order))
	}

	if caller.IsStaff {
		filter.DepartmentID = req.DepartmentID
	} else {
		filter.ConductedBy = caller.ID
	}

	sessions, pagination, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, pagination, nil
}

// Get returns a single session; non-staff callers may only see their own.
func (s *SessionService) Get(ctx context.Context, caller models.Caller, id string) (*models.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get session")
	}
	if !caller.IsStaff && session.ConductedBy != caller.ID {
		return nil, appErrors.ErrForbidden
	}
	return session, nil
}

// Create registers a new session in the scheduled state.
func (s *SessionService) Create(ctx context.Context, caller models.Caller, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err)
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "topic must not be empty")
	}
	if !caller.IsStaff && req.ConductedBy != caller.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may assign sessions to other users")
	}
	conductor, err := s.resolveConductor(ctx, req.ConductedBy)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Topic:         strings.TrimSpace(req.Topic),
		Date:          req.Date,
		Place:         strings.TrimSpace(req.Place),
		ConductedBy:   conductor.ID,
		ConductorName: conductor.FullName(),
		Status:        models.StatusScheduled,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionCreate,
		Entity:      "session",
		EntityID:    session.ID,
		Description: fmt.Sprintf("Created session '%s'.", session.Topic),
		Timestamp:   s.now().UTC(),
	})
	return session, nil
}

// Update applies field changes to a session. Status changes follow the
// transition rules; cancelling demands a reason, and leaving the cancelled
// state clears it. No partial mutation happens on validation failure.
func (s *SessionService) Update(ctx context.Context, caller models.Caller, id string, req UpdateSessionRequest) (*models.Session, error) {
	session, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	updated := *session
	if req.Topic != nil {
		if strings.TrimSpace(*req.Topic) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "topic must not be empty")
		}
		updated.Topic = strings.TrimSpace(*req.Topic)
	}
	if req.Date != nil {
		if req.Date.IsZero() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must not be empty")
		}
		updated.Date = *req.Date
	}
	if req.Place != nil {
		updated.Place = strings.TrimSpace(*req.Place)
	}
	if req.ConductedBy != nil && *req.ConductedBy != session.ConductedBy {
		if !caller.IsStaff {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff may reassign sessions")
		}
		conductor, err := s.resolveConductor(ctx, *req.ConductedBy)
		if err != nil {
			return nil, err
		}
		updated.ConductedBy = conductor.ID
		updated.ConductorName = conductor.FullName()
	}

	if req.Status != nil {
		var reason string
		if req.CancelledReason != nil {
			reason = *req.CancelledReason
		}
		if err := applyTransition(&updated, models.SessionStatus(strings.ToLower(*req.Status)), reason); err != nil {
			return nil, err
		}
	} else if req.CancelledReason != nil && updated.Status == models.StatusCancelled {
		if strings.TrimSpace(*req.CancelledReason) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cancelled sessions require a non-empty reason")
		}
		updated.CancelledReason = strings.TrimSpace(*req.CancelledReason)
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionUpdate,
		Entity:      "session",
		EntityID:    updated.ID,
		Description: fmt.Sprintf("Updated session '%s'.", updated.Topic),
		Timestamp:   s.now().UTC(),
	})
	return &updated, nil
}

// Transition changes only the session status, with the same rules as Update.
func (s *SessionService) Transition(ctx context.Context, caller models.Caller, id, status, reason string) (*models.Session, error) {
	return s.Update(ctx, caller, id, UpdateSessionRequest{Status: &status, CancelledReason: &reason})
}

// Delete removes a session. Staff only.
func (s *SessionService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if !caller.IsStaff {
		return appErrors.Clone(appErrors.ErrForbidden, "only staff may delete sessions")
	}
	session, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}

	s.activities.Record(ctx, models.ActivityEvent{
		Actor:       caller,
		Action:      models.ActionDelete,
		Entity:      "session",
		EntityID:    session.ID,
		Description: fmt.Sprintf("Deleted session '%s'.", session.Topic),
		Timestamp:   s.now().UTC(),
	})
	return nil
}

// FindByTopicAndConductor looks up a session by its import identity. A nil
// session with a nil error means no match.
func (s *SessionService) FindByTopicAndConductor(ctx context.Context, topic, conductorID string) (*models.Session, error) {
	session, err := s.repo.FindByTopicAndConductor(ctx, topic, conductorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) resolveConductor(ctx context.Context, id string) (*models.User, error) {
	conductor, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "conductor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve conductor")
	}
	if conductor.IsStaff {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessions must be conducted by a non-staff user")
	}
	return conductor, nil
}

// applyTransition moves a session to the requested status, enforcing the
// lifecycle rules and the cancelled-reason invariant.
func applyTransition(session *models.Session, to models.SessionStatus, reason string) error {
	if !to.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", to))
	}
	if !models.CanTransition(session.Status, to) {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("cannot transition session from %s to %s", session.Status, to))
	}
	if to == models.StatusCancelled {
		reason = strings.TrimSpace(reason)
		if reason == "" && session.CancelledReason == "" {
			return appErrors.Clone(appErrors.ErrValidation, "cancelling a session requires a reason")
		}
		if reason != "" {
			session.CancelledReason = reason
		}
	} else {
		session.CancelledReason = ""
	}
	session.Status = to
	return nil
}
