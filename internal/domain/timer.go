package domain

import "time"

// Timer is a countdown toward a single future instant. Timers are immutable
// after creation; "edit" is remove + recreate.
type Timer struct {
	TimerID    string    `json:"id" dynamodbav:"timer_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Title      string    `json:"title" dynamodbav:"title"`
	TargetDate time.Time `json:"target_date" dynamodbav:"target_date"`
	TimeZone   string    `json:"time_zone" dynamodbav:"time_zone"`
	Location   string    `json:"location" dynamodbav:"location"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

// TimeLeft is the days/hours/minutes/seconds breakdown of the distance to a
// timer's target. Derived every tick, never persisted.
type TimeLeft struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

type CreateTimerRequest struct {
	Title      string `json:"title" validate:"required"`
	TargetDate string `json:"target_date" validate:"required"` // RFC3339
	TimeZone   string `json:"time_zone"`                       // IANA zone, defaults to server zone
	Location   string `json:"location"`                        // defaults to TimeZone
}

// TimerView is a Timer plus its countdown state at snapshot time.
type TimerView struct {
	Timer
	TimeLeft TimeLeft `json:"time_left"`
	Expired  bool     `json:"expired"`
}
