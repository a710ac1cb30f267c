package model

import "time"

// EventType enumerates session events.
type EventType string

const (
	EventStarted   EventType = "started"
	EventResumed   EventType = "resumed"
	EventTick      EventType = "tick"
	EventAnswer    EventType = "answer"
	EventAdvance   EventType = "advance"
	EventViolation EventType = "violation"
	EventFinished  EventType = "finished"
)

// SessionEvent is emitted by the exam session to subscribers and the proctor feed.
type SessionEvent struct {
	Type           EventType      `json:"type"`
	SessionID      string         `json:"session_id"`
	Contact        string         `json:"contact,omitempty"`
	TimeRemaining  int            `json:"time_remaining"`
	CurrentIndex   int            `json:"current_index"`
	ViolationCount int            `json:"violation_count"`
	Reason         string         `json:"reason,omitempty"`
	Result         *ResultSummary `json:"result,omitempty"`
	At             time.Time      `json:"at"`
}

// ViolationEvent is one row of the violation audit trail.
type ViolationEvent struct {
	SessionID      string    `json:"session_id"`
	Contact        string    `json:"contact"`
	Reason         string    `json:"reason"`
	ViolationCount int       `json:"violation_count"`
	RecordedAt     time.Time `json:"recorded_at"`
}
