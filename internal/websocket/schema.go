package websocket

import "github.com/stemsi/exstem-proctor/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer    Action = "answer"
	ActionAdvance   Action = "advance"
	ActionViolation Action = "violation"
	ActionSubmit    Action = "submit"
	ActionPing      Action = "ping"
)

// RequestPayload is the single inbound frame shape. Fields not used by an
// action are ignored.
type RequestPayload struct {
	Action      Action `json:"action"`
	QuestionID  *int   `json:"question_id,omitempty"`
	OptionIndex *int   `json:"option_index,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventTick      Event = "tick"
	EventViolation Event = "violation"
	EventFinished  Event = "finished"
	EventError     Event = "error"
	EventPong      Event = "pong"
	EventSuccess   Event = "success"
)

type StateResponse struct {
	Event Event             `json:"event"`
	State model.SessionView `json:"state"`
}

type TickResponse struct {
	Event         Event               `json:"event"`
	TimeRemaining model.TimeRemaining `json:"time_remaining"`
}

type ViolationResponse struct {
	Event             Event  `json:"event"`
	Reason            string `json:"reason"`
	ViolationCount    int    `json:"violation_count"`
	MaxViolations     int    `json:"max_violations"`
	ThresholdExceeded bool   `json:"threshold_exceeded"`
}

type FinishedResponse struct {
	Event  Event               `json:"event"`
	Result model.ResultSummary `json:"result"`
}

type SuccessResponse struct {
	Event  Event  `json:"event"`
	Action Action `json:"action"`
}

type ErrorResponse struct {
	Event  Event             `json:"event"`
	Code   string            `json:"code"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
