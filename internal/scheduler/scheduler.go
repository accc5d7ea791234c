// Package scheduler watches active timers and fires the completion
// notification exactly once per expiry.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/timeweaver-api/internal/domain"
	"github.com/timeweaver-api/internal/infrastructure/genai"
	"github.com/timeweaver-api/internal/pkg/id"
	"go.uber.org/zap"
)

// TimerStore is the minimal store access the scheduler needs.
type TimerStore interface {
	ScanActive(ctx context.Context) ([]domain.Timer, error)
	Delete(ctx context.Context, timerID string) error
}

// NotificationStore persists generated completion messages.
type NotificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

// Generator produces the personalized completion message.
type Generator interface {
	Generate(ctx context.Context, in genai.NotificationInput) (*genai.NotificationOutput, error)
}

// Publisher signals store changes to realtime subscribers.
type Publisher interface {
	Publish(userID string)
}

// storeTimeout bounds the post-expiry cleanup writes.
const storeTimeout = 10 * time.Second

// entry tracks one active timer. notified is the one-shot guard: once set,
// no further generation request can be issued for this timer.
type entry struct {
	timer    domain.Timer
	notified bool
}

// Scheduler sweeps the registry once per second and expires due timers.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry

	timers        TimerStore
	notifications NotificationStore
	generator     Generator
	hub           Publisher
	log           *zap.Logger

	interval   time.Duration
	genTimeout time.Duration
	now        func() time.Time
	inflight   sync.WaitGroup
}

func New(timers TimerStore, notifications NotificationStore, generator Generator, hub Publisher, genTimeout time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		entries:       make(map[string]*entry),
		timers:        timers,
		notifications: notifications,
		generator:     generator,
		hub:           hub,
		log:           log,
		interval:      time.Second,
		genTimeout:    genTimeout,
		now:           time.Now,
	}
}

// Run seeds the registry from the store and ticks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	active, err := s.timers.ScanActive(ctx)
	if err != nil {
		s.log.Error("seed scan failed", zap.Error(err))
	}
	for _, t := range active {
		s.Register(t)
	}
	s.log.Info("scheduler started", zap.Int("timers", len(active)))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.inflight.Wait()
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Register adds a timer to the sweep. Called on create and at startup.
func (s *Scheduler) Register(t domain.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[t.TimerID]; ok {
		return
	}
	s.entries[t.TimerID] = &entry{timer: t}
}

// Unregister drops a timer from the sweep. Called on explicit removal.
func (s *Scheduler) Unregister(timerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, timerID)
}

// sweep claims every newly due timer under the lock, then expires each one
// asynchronously. The tick itself does arithmetic only, never I/O.
func (s *Scheduler) sweep(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []domain.Timer
	for _, e := range s.entries {
		if e.notified || e.timer.TargetDate.After(now) {
			continue
		}
		e.notified = true
		due = append(due, e.timer)
	}
	s.mu.Unlock()

	for _, t := range due {
		s.inflight.Add(1)
		go func(t domain.Timer) {
			defer s.inflight.Done()
			s.expire(ctx, t)
		}(t)
	}
}

// expire generates the completion message (falling back to a generic one on
// generation failure), stores the notification, removes the timer and
// publishes a snapshot change.
func (s *Scheduler) expire(ctx context.Context, t domain.Timer) {
	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	message := fallbackMessage(t)
	out, err := s.generator.Generate(genCtx, genai.NotificationInput{
		TargetDate: t.TargetDate.UTC().Format(time.RFC3339),
		TimeZone:   t.TimeZone,
		Location:   t.Location,
	})
	if err != nil {
		s.log.Warn("notification generation failed, using fallback",
			zap.String("timer_id", t.TimerID), zap.Error(err))
	} else {
		message = out.NotificationMessage
	}

	// The run context is canceled during shutdown while expiries drain;
	// the cleanup writes get their own deadline so they still land.
	storeCtx, cancelStore := context.WithTimeout(context.Background(), storeTimeout)
	defer cancelStore()

	now := s.now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         t.UserID,
		TimerID:        t.TimerID,
		TimerTitle:     t.Title,
		Message:        message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.notifications.Put(storeCtx, n); err != nil {
		s.log.Error("store notification failed", zap.String("timer_id", t.TimerID), zap.Error(err))
	}

	if err := s.timers.Delete(storeCtx, t.TimerID); err != nil {
		s.log.Error("remove expired timer failed", zap.String("timer_id", t.TimerID), zap.Error(err))
	}
	s.Unregister(t.TimerID)

	s.hub.Publish(t.UserID)
	s.log.Info("timer expired", zap.String("timer_id", t.TimerID), zap.String("user_id", t.UserID))
}

func fallbackMessage(t domain.Timer) string {
	return fmt.Sprintf("Your countdown %q has ended. The target time %s (%s) has been reached.",
		t.Title, t.TargetDate.UTC().Format(time.RFC1123), t.TimeZone)
}
