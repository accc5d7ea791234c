package localstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/timeweaver-api/internal/domain"
)

// NotificationStore keeps completion messages in memory. Anonymous-mode
// notifications are transient dialog state, so they don't survive restarts.
type NotificationStore struct {
	mu            sync.Mutex
	notifications map[string]domain.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{notifications: make(map[string]domain.Notification)}
}

func (s *NotificationStore) Put(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[n.NotificationID] = *n
	return nil
}

func (s *NotificationStore) Get(_ context.Context, notificationID string) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	return &n, nil
}

func (s *NotificationStore) ListUnread(_ context.Context, userID string) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && n.Readed == 0 {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *NotificationStore) MarkAsRead(_ context.Context, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok {
		return fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	n.Readed = 1
	s.notifications[notificationID] = n
	return nil
}
