package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/timeweaver-api/internal/domain"
	"github.com/timeweaver-api/internal/realtime"
	"github.com/timeweaver-api/internal/transport/http/middleware"
)

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	if n, _ := args.Get(0).([]domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) Acknowledge(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStream_MissingClaims(t *testing.T) {
	h := NewStreamHandler(&mockTimerSvc{}, &mockNotificationSvc{}, realtime.NewHub())
	r := httptest.NewRequest(http.MethodGet, "/v1/timers/stream", nil)
	rr := httptest.NewRecorder()
	h.Subscribe(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestStream_SendsInitialSnapshot(t *testing.T) {
	timers := &mockTimerSvc{}
	timers.On("List", mock.Anything, domain.AnonymousUserID).Return([]domain.TimerView{
		{Timer: domain.Timer{TimerID: "t1", Title: "Launch"}},
	}, nil)
	notifs := &mockNotificationSvc{}
	notifs.On("ListUnread", mock.Anything, domain.AnonymousUserID).Return([]domain.Notification{}, nil)

	h := NewStreamHandler(timers, notifs, realtime.NewHub())

	// Pre-canceled request context: the handler writes the initial snapshot
	// and exits its event loop immediately instead of blocking.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodGet, "/v1/timers/stream", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	middleware.Anonymous(http.HandlerFunc(h.Subscribe)).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "event: snapshot")
	assert.Contains(t, body, `"Launch"`)
	timers.AssertExpectations(t)
	notifs.AssertExpectations(t)
}
