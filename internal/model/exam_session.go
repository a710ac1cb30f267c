package model

import (
	"time"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusRegistered SessionStatus = "REGISTERED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusFinished   SessionStatus = "FINISHED"
)

// SessionState is the full snapshot of a running exam. It is the unit of persistence.
type SessionState struct {
	SessionID            string      `json:"session_id"`
	Candidate            Candidate   `json:"candidate"`
	Questions            []Question  `json:"questions"`
	CurrentIndex         int         `json:"current_index"`
	Answers              map[int]int `json:"answers"`
	TimeRemainingSeconds int         `json:"time_remaining_seconds"`
	ViolationCount       int         `json:"violation_count"`
	LastViolation        string      `json:"last_violation,omitempty"`
	IsActive             bool        `json:"is_active"`
	StartedAt            time.Time   `json:"started_at"`
}

// Progress describes the candidate's position in the question set.
type Progress struct {
	Current  int `json:"current"`
	Total    int `json:"total"`
	Answered int `json:"answered"`
	Percent  int `json:"percent"`
}

// TimeRemaining is the timer as rendered to the candidate.
type TimeRemaining struct {
	Seconds int  `json:"seconds"`
	Warning bool `json:"warning"`
}

// SessionView is a read-only rendering of the whole session.
type SessionView struct {
	Status         SessionStatus  `json:"status"`
	SessionID      string         `json:"session_id,omitempty"`
	Candidate      *Candidate     `json:"candidate,omitempty"`
	Question       *QuestionView  `json:"question,omitempty"`
	Progress       *Progress      `json:"progress,omitempty"`
	TimeRemaining  *TimeRemaining `json:"time_remaining,omitempty"`
	ViolationCount int            `json:"violation_count"`
	LastViolation  string         `json:"last_violation,omitempty"`
	Result         *ResultSummary `json:"result,omitempty"`
}

// Instructions summarise the exam rules shown before start.
type Instructions struct {
	TotalTimeSeconds  int `json:"total_time_seconds"`
	QuestionCount     int `json:"question_count"`
	PassingPercentage int `json:"passing_percentage"`
	MaxViolations     int `json:"max_violations"`
}

// ViolationRequest reports a proctoring violation.
type ViolationRequest struct {
	Reason string `json:"reason" binding:"max=200"`
}
