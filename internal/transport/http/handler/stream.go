package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/timeweaver-api/internal/application/notification"
	"github.com/timeweaver-api/internal/application/timer"
	"github.com/timeweaver-api/internal/domain"
	"github.com/timeweaver-api/internal/realtime"
	"github.com/timeweaver-api/internal/transport/http/middleware"
)

const heartbeatInterval = 15 * time.Second

// StreamHandler pushes server-sent snapshot events. A client receives the
// full state of its timers and unread notifications on connect and again
// every time the hub signals a change for its user.
type StreamHandler struct {
	timers        timer.Service
	notifications notification.Service
	hub           *realtime.Hub
}

func NewStreamHandler(timers timer.Service, notifications notification.Service, hub *realtime.Hub) *StreamHandler {
	return &StreamHandler{timers: timers, notifications: notifications, hub: hub}
}

type snapshotEvent struct {
	Timers        []domain.TimerView    `json:"timers"`
	Notifications []domain.Notification `json:"notifications"`
}

func (h *StreamHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	signals, cancel := h.hub.Subscribe(claims.UserID)
	defer cancel()

	h.sendSnapshot(w, flusher, r, claims.UserID)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, open := <-signals:
			if !open {
				return
			}
			h.sendSnapshot(w, flusher, r, claims.UserID)
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func (h *StreamHandler) sendSnapshot(w http.ResponseWriter, flusher http.Flusher, r *http.Request, userID string) {
	views, err := h.timers.List(r.Context(), userID)
	if err != nil {
		return
	}
	unread, err := h.notifications.ListUnread(r.Context(), userID)
	if err != nil {
		return
	}
	payload, err := json.Marshal(snapshotEvent{Timers: views, Notifications: unread})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
	flusher.Flush()
}
