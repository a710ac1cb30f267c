package service

import (
	"sync"

	"github.com/pkg/errors"
)

// TimerState is the lifecycle state of a Timer.
type TimerState int

const (
	TimerStopped TimerState = iota
	TimerRunning
	TimerExpired
)

func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerExpired:
		return "expired"
	default:
		return "stopped"
	}
}

// Timer is a second-granularity countdown driven by explicit Tick calls.
// It is not safe for concurrent use; ExamSession serialises access.
type Timer struct {
	state      TimerState
	remaining  int
	expired    chan struct{}
	expireOnce *sync.Once
}

// NewTimer returns a stopped timer.
func NewTimer() *Timer {
	return &Timer{expired: make(chan struct{}), expireOnce: &sync.Once{}}
}

// ResumeTimer rebuilds a running timer from a persisted remaining value.
// A remaining value of zero expires on the next tick.
func ResumeTimer(remaining int) *Timer {
	t := NewTimer()
	if remaining < 0 {
		remaining = 0
	}
	t.remaining = remaining
	t.state = TimerRunning
	return t
}

// Start begins a countdown of the given number of seconds.
func (t *Timer) Start(seconds int) error {
	if seconds <= 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "timer duration %d", seconds)
	}
	if t.state == TimerRunning {
		return errors.Wrap(ErrState, "timer already running")
	}
	if t.state == TimerExpired {
		t.expired = make(chan struct{})
		t.expireOnce = &sync.Once{}
	}
	t.remaining = seconds
	t.state = TimerRunning
	return nil
}

// Tick advances the countdown by one second. It returns true only on the
// tick that causes expiry; ticks in any other state are ignored.
func (t *Timer) Tick() bool {
	if t.state != TimerRunning {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining > 0 {
		return false
	}
	t.state = TimerExpired
	t.expireOnce.Do(func() { close(t.expired) })
	return true
}

// Stop halts a running timer. Stopping twice, or stopping an expired timer, does nothing.
func (t *Timer) Stop() {
	if t.state == TimerRunning {
		t.state = TimerStopped
	}
}

func (t *Timer) Remaining() int    { return t.remaining }
func (t *Timer) State() TimerState { return t.state }

// Expired is closed exactly once, when the countdown reaches zero.
func (t *Timer) Expired() <-chan struct{} { return t.expired }
