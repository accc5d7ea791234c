package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/timeweaver-api/internal/countdown"
	"github.com/timeweaver-api/internal/domain"
	"github.com/timeweaver-api/internal/pkg/id"
	"github.com/timeweaver-api/internal/pkg/validate"
)

// Repository is the store capability the service needs. Both the DynamoDB
// collection and the local snapshot file implement it.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Timer, error)
	Get(ctx context.Context, timerID string) (*domain.Timer, error)
	Put(ctx context.Context, t *domain.Timer) error
	Delete(ctx context.Context, timerID string) error
}

// Registry is the scheduler's view of timer lifecycle.
type Registry interface {
	Register(t domain.Timer)
	Unregister(timerID string)
}

// Publisher signals snapshot changes to realtime subscribers.
type Publisher interface {
	Publish(userID string)
}

type Service interface {
	List(ctx context.Context, userID string) ([]domain.TimerView, error)
	Create(ctx context.Context, userID string, req domain.CreateTimerRequest) (*domain.Timer, error)
	Remove(ctx context.Context, userID, timerID string) error
}

type service struct {
	repo      Repository
	registry  Registry
	hub       Publisher
	defaultTZ string
	now       func() time.Time
}

func NewService(repo Repository, registry Registry, hub Publisher, defaultTZ string) Service {
	return &service{
		repo:      repo,
		registry:  registry,
		hub:       hub,
		defaultTZ: defaultTZ,
		now:       time.Now,
	}
}

// List returns the user's timers ascending by target, each with its
// countdown breakdown computed at call time.
func (s *service) List(ctx context.Context, userID string) ([]domain.TimerView, error) {
	timers, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]domain.TimerView, 0, len(timers))
	for _, t := range timers {
		left, expired := countdown.Remaining(t.TargetDate, now)
		views = append(views, domain.TimerView{Timer: t, TimeLeft: left, Expired: expired})
	}
	return views, nil
}

// Create validates and stores a new timer. The target must be strictly in
// the future at call time.
func (s *service) Create(ctx context.Context, userID string, req domain.CreateTimerRequest) (*domain.Timer, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	target, err := time.Parse(time.RFC3339, req.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("target_date must be RFC3339: %w", domain.ErrBadRequest)
	}
	if !target.After(s.now()) {
		return nil, fmt.Errorf("target_date must be in the future: %w", domain.ErrBadRequest)
	}

	tz := req.TimeZone
	if tz == "" {
		tz = s.defaultTZ
	} else if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("unknown time_zone: %w", domain.ErrBadRequest)
	}
	location := req.Location
	if location == "" {
		location = tz
	}

	t := &domain.Timer{
		TimerID:    id.New(),
		UserID:     userID,
		Title:      req.Title,
		TargetDate: target.UTC(),
		TimeZone:   tz,
		Location:   location,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	s.registry.Register(*t)
	s.hub.Publish(userID)
	return t, nil
}

// Remove deletes a timer after an ownership check.
func (s *service) Remove(ctx context.Context, userID, timerID string) error {
	t, err := s.repo.Get(ctx, timerID)
	if err != nil {
		return err
	}
	if t.UserID != userID {
		return fmt.Errorf("timer belongs to another user: %w", domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, timerID); err != nil {
		return err
	}
	s.registry.Unregister(timerID)
	s.hub.Publish(userID)
	return nil
}
