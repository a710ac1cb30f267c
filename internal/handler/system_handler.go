package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
)

const healthTimeout = 2 * time.Second

// SystemHandler reports process health.
type SystemHandler struct {
	rdb       *redis.Client
	session   *service.ExamSession
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. rdb may be nil.
func NewSystemHandler(rdb *redis.Client, session *service.ExamSession, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:       rdb,
		session:   session,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthStatus struct {
	Status          string              `json:"status"`
	Uptime          string              `json:"uptime"`
	Session         model.SessionStatus `json:"session"`
	Redis           string              `json:"redis,omitempty"`
	QueueViolations int64               `json:"queue_violations,omitempty"`
}

// Health godoc
// GET /health
// Redis trouble degrades the report but never fails liveness.
func (h *SystemHandler) Health(c *gin.Context) {
	status := healthStatus{
		Status:  "ok",
		Uptime:  time.Since(h.startTime).Truncate(time.Second).String(),
		Session: h.session.Status(),
	}

	if h.rdb != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		pipe := h.rdb.Pipeline()
		pingCmd := pipe.Ping(ctx)
		queueCmd := pipe.LLen(ctx, config.WorkerKey.PersistViolationsQueue)
		if _, err := pipe.Exec(ctx); err != nil || pingCmd.Err() != nil {
			h.log.Warn().Err(err).Msg("Redis health check failed")
			status.Status = "degraded"
			status.Redis = "unreachable"
		} else {
			status.Redis = "ok"
			status.QueueViolations, _ = queueCmd.Result()
		}
	}

	response.Success(c, http.StatusOK, status)
}
