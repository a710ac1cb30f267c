package service

import "strings"

const unspecifiedViolation = "unspecified"

// Violation reasons reported by the browser client.
const (
	ViolationFullscreenExited = "fullscreen-exited"
	ViolationTabHidden        = "tab-hidden"
	ViolationFocusLost        = "focus-lost"
)

// ViolationReport is the outcome of recording one violation.
type ViolationReport struct {
	Count             int  `json:"count"`
	ThresholdExceeded bool `json:"threshold_exceeded"`
}

// ViolationMonitor counts proctoring violations against a threshold. It only
// reports; the session decides what happens when the threshold is reached.
type ViolationMonitor struct {
	max   int
	count int
	armed bool
}

// NewViolationMonitor creates a disarmed monitor.
func NewViolationMonitor(maxViolations int) *ViolationMonitor {
	return &ViolationMonitor{max: maxViolations}
}

// Arm enables counting, continuing from count.
func (m *ViolationMonitor) Arm(count int) {
	if count < 0 {
		count = 0
	}
	m.count = count
	m.armed = true
}

// Disarm makes the monitor inert. The count is kept for reporting.
func (m *ViolationMonitor) Disarm() {
	m.armed = false
}

// Record counts one violation.
func (m *ViolationMonitor) Record(reason string) ViolationReport {
	if !m.armed {
		return ViolationReport{Count: m.count}
	}
	m.count++
	return ViolationReport{Count: m.count, ThresholdExceeded: m.count >= m.max}
}

func (m *ViolationMonitor) Count() int  { return m.count }
func (m *ViolationMonitor) Armed() bool { return m.armed }

// normalizeReason trims the reason and substitutes a placeholder for blanks.
func normalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return unspecifiedViolation
	}
	return reason
}
