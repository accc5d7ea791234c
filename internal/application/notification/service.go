package notification

import (
	"context"
	"fmt"

	"github.com/timeweaver-api/internal/domain"
)

// Store is the notification persistence capability. Both the DynamoDB table
// and the local in-memory store implement it.
type Store interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
}

type Service interface {
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	Acknowledge(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.store.ListUnread(ctx, userID)
}

// Acknowledge marks the completion dialog as dismissed. It never touches the
// timer: expired timers are already removed by the scheduler.
func (s *service) Acknowledge(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.store.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden)
	}
	if err := s.store.MarkAsRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.Readed = 1
	return n, nil
}
