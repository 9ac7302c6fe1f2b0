package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trainhub/training-admin-api/internal/dto"
	"github.com/trainhub/training-admin-api/internal/models"
)

type sessionAggregator interface {
	CountAll(ctx context.Context) (int, error)
	CountByConductor(ctx context.Context, conductorID string) (int, error)
	TopUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Session, error)
	ListByStatus(ctx context.Context, status models.SessionStatus) ([]models.Session, error)
	UpcomingByConductor(ctx context.Context, conductorID string, now time.Time) ([]models.Session, error)
}

type userCounter interface {
	CountAll(ctx context.Context) (int, error)
}

type topicLister interface {
	Latest(ctx context.Context, limit int) ([]models.LearningTopic, error)
}

// DashboardServiceConfig tunes dashboard composition.
type DashboardServiceConfig struct {
	CacheTTL          time.Duration
	TopSessionsLimit  int
	LearningTopicsMax int
}

// DashboardService composes role-scoped dashboard payloads.
type DashboardService struct {
	sessions sessionAggregator
	users    userCounter
	topics   topicLister
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Sessions sessionAggregator
	Users    userCounter
	Topics   topicLister
	Cache    *CacheService
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TopSessionsLimit <= 0 {
		cfg.TopSessionsLimit = 3
	}
	if cfg.LearningTopicsMax <= 0 {
		cfg.LearningTopicsMax = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		sessions: params.Sessions,
		users:    params.Users,
		topics:   params.Topics,
		cache:    params.Cache,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Build composes the dashboard for the caller. Staff callers receive the
// organization-wide view; everyone else receives a personal summary. The
// second return value reports whether the payload came from cache.
func (s *DashboardService) Build(ctx context.Context, caller models.Caller) (*dto.DashboardResponse, bool, error) {
	cacheKey := s.cacheKey(caller)
	if cached, hit, err := s.tryCache(ctx, cacheKey); err != nil {
		return nil, false, err
	} else if hit {
		return cached, true, nil
	}

	var (
		payload *dto.DashboardResponse
		err     error
	)
	if caller.IsStaff {
		payload, err = s.composeStaff(ctx)
	} else {
		payload, err = s.composeSelf(ctx, caller.ID)
	}
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, cacheKey, payload)
	return payload, false, nil
}

// Invalidate drops all cached dashboard payloads. Call after any session,
// user, or learning topic mutation.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) cacheKey(caller models.Caller) string {
	if caller.IsStaff {
		return "dash:staff"
	}
	return fmt.Sprintf("dash:self:%s", caller.ID)
}

func (s *DashboardService) tryCache(ctx context.Context, key string) (*dto.DashboardResponse, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached dto.DashboardResponse
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		// Serve fresh data when the cache backend misbehaves.
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if hit {
		return &cached, true, nil
	}
	return nil, false, nil
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *DashboardService) composeStaff(ctx context.Context) (*dto.DashboardResponse, error) {
	now := s.now().UTC()

	totalUsers, err := s.users.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	totalSessions, err := s.sessions.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	top, err := s.sessions.TopUpcoming(ctx, now, s.cfg.TopSessionsLimit)
	if err != nil {
		return nil, fmt.Errorf("load top sessions: %w", err)
	}
	completed, err := s.sessions.ListByStatus(ctx, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("load completed sessions: %w", err)
	}
	pending, err := s.sessions.ListByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("load pending sessions: %w", err)
	}
	cancelled, err := s.sessions.ListByStatus(ctx, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("load cancelled sessions: %w", err)
	}
	topics, err := s.topics.Latest(ctx, s.cfg.LearningTopicsMax)
	if err != nil {
		return nil, fmt.Errorf("load learning topics: %w", err)
	}

	staff := &dto.StaffDashboardResponse{
		TotalUsers:     totalUsers,
		TotalSessions:  totalSessions,
		TopSessions:    summarize(top, now),
		Completed:      summarize(completed, now),
		Pending:        summarize(pending, now),
		Cancelled:      summarize(cancelled, now),
		LearningTopics: summarizeTopics(topics),
	}
	return &dto.DashboardResponse{Staff: staff}, nil
}

func (s *DashboardService) composeSelf(ctx context.Context, callerID string) (*dto.DashboardResponse, error) {
	now := s.now().UTC()

	total, err := s.sessions.CountByConductor(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("count own sessions: %w", err)
	}
	upcoming, err := s.sessions.UpcomingByConductor(ctx, callerID, now)
	if err != nil {
		return nil, fmt.Errorf("load upcoming sessions: %w", err)
	}

	self := &dto.SelfDashboardResponse{
		TotalSessions:    total,
		UpcomingSessions: summarize(upcoming, now),
	}
	return &dto.DashboardResponse{Self: self}, nil
}

func summarize(sessions []models.Session, now time.Time) []dto.SessionSummary {
	summaries := make([]dto.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, dto.NewSessionSummary(session, now))
	}
	return summaries
}

func summarizeTopics(topics []models.LearningTopic) []dto.LearningTopicSummary {
	summaries := make([]dto.LearningTopicSummary, 0, len(topics))
	for _, topic := range topics {
		summaries = append(summaries, dto.LearningTopicSummary{
			ID:         topic.ID,
			ComingSoon: topic.ComingSoon,
			URL:        topic.URL,
		})
	}
	return summaries
}
