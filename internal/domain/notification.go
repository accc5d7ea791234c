package domain

import "time"

// Notification is the completion message produced once per timer expiry.
// It stays unread until the user acknowledges the completion dialog.
type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	TimerID        string    `json:"timer_id" dynamodbav:"timer_id"`
	TimerTitle     string    `json:"timer_title" dynamodbav:"timer_title"`
	Message        string    `json:"message" dynamodbav:"message"`
	Readed         int       `json:"readed" dynamodbav:"readed"` // 0 = unread, 1 = acknowledged
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}
