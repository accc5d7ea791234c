// Package localstore backs the timer store with a single JSON snapshot file,
// the anonymous-mode counterpart of the DynamoDB collection. Every mutation
// rewrites the whole array; a corrupt snapshot is discarded wholesale.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/timeweaver-api/internal/domain"
	"go.uber.org/zap"
)

// TimerStore is a file-backed timer store for single-user anonymous mode.
// Single writer: all access goes through the mutex.
type TimerStore struct {
	mu     sync.Mutex
	path   string
	timers map[string]domain.Timer
	log    *zap.Logger
	now    func() time.Time
}

// NewTimerStore loads the snapshot at path. Unparseable content resets the
// store to empty; entries whose target is not strictly in the future are
// dropped and the pruned snapshot is written back.
func NewTimerStore(path string, log *zap.Logger) (*TimerStore, error) {
	s := &TimerStore{
		path:   path,
		timers: make(map[string]domain.Timer),
		log:    log,
		now:    time.Now,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	s.load()
	return s, nil
}

func (s *TimerStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("snapshot unreadable, starting empty", zap.Error(err))
		}
		return
	}
	var entries []domain.Timer
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.log.Warn("snapshot corrupt, discarding", zap.Error(err))
		return
	}
	now := s.now()
	dropped := 0
	for _, t := range entries {
		if !t.TargetDate.After(now) {
			dropped++
			continue
		}
		s.timers[t.TimerID] = t
	}
	if dropped > 0 {
		s.log.Info("dropped expired timers on load", zap.Int("count", dropped))
		if err := s.save(); err != nil {
			s.log.Warn("could not rewrite pruned snapshot", zap.Error(err))
		}
	}
}

// save rewrites the full snapshot. Caller must hold the mutex (or be the
// single-threaded constructor).
func (s *TimerStore) save() error {
	entries := s.sorted()
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *TimerStore) sorted() []domain.Timer {
	entries := make([]domain.Timer, 0, len(s.timers))
	for _, t := range s.timers {
		entries = append(entries, t)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TargetDate.Before(entries[j].TargetDate)
	})
	return entries
}

func (s *TimerStore) Put(_ context.Context, t *domain.Timer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[t.TimerID] = *t
	return s.save()
}

func (s *TimerStore) Get(_ context.Context, timerID string) (*domain.Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[timerID]
	if !ok {
		return nil, fmt.Errorf("timer not found: %w", domain.ErrNotFound)
	}
	return &t, nil
}

// ListByUser returns the timers ordered ascending by target. The local store
// holds a single identity, so any other userID yields an empty list.
func (s *TimerStore) ListByUser(_ context.Context, userID string) ([]domain.Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Timer
	for _, t := range s.sorted() {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *TimerStore) ScanActive(_ context.Context) ([]domain.Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(), nil
}

func (s *TimerStore) Delete(_ context.Context, timerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, timerID)
	return s.save()
}
