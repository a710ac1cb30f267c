package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
)

const (
	keepAliveInterval = 30 * time.Second
	listTimeout       = 5 * time.Second
)

// ViolationLister reads the persisted violation audit trail.
type ViolationLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]model.ViolationEvent, error)
}

// MonitorHandler serves the proctor's live view of the session.
type MonitorHandler struct {
	session    *service.ExamSession
	events     *repository.ProctorEventRepository
	violations ViolationLister
	log        zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler. events and violations may be
// nil when Redis or PostgreSQL are not configured; the matching routes then
// answer 503.
func NewMonitorHandler(
	session *service.ExamSession,
	events *repository.ProctorEventRepository,
	violations ViolationLister,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		session:    session,
		events:     events,
		violations: violations,
		log:        log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorStreamSSE godoc
// GET /api/v1/monitor/stream
// Sends a snapshot of the session, then relays the Redis monitor channel.
func (h *MonitorHandler) MonitorStreamSSE(c *gin.Context) {
	if h.events == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStreamUnavailable)
		return
	}

	reqCtx := c.Request.Context()

	pubsub := h.events.Subscribe(reqCtx)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed so no event published between
	// the snapshot and the first read is lost.
	if _, err := pubsub.Receive(reqCtx); err != nil {
		h.log.Error().Err(err).Msg("Monitor subscription failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStreamUnavailable)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("message", map[string]interface{}{
		"type":         "snapshot",
		"state":        h.session.View(),
		"instructions": h.session.Instructions(),
	})
	c.Writer.Flush()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	h.log.Info().Str("channel", h.events.Channel()).Msg("Proctor attached to live monitor SSE")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Proctor disconnected from live monitor SSE")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Payloads are already JSON; forward them untouched.
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// ListViolations godoc
// GET /api/v1/monitor/sessions/:session_id/violations
func (h *MonitorHandler) ListViolations(c *gin.Context) {
	if h.violations == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStreamUnavailable)
		return
	}

	sessionID := c.Param("session_id")
	if _, err := uuid.Parse(sessionID); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"session_id": "session_id must be a UUID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), listTimeout)
	defer cancel()

	events, err := h.violations.ListBySession(ctx, sessionID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to list violations")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if events == nil {
		events = []model.ViolationEvent{}
	}

	response.Success(c, http.StatusOK, gin.H{"violations": events})
}
