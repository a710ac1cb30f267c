package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
	"github.com/stemsi/exstem-proctor/internal/validator"
)

// ExamHandler exposes the exam session over REST.
type ExamHandler struct {
	session     *service.ExamSession
	authService *service.AuthService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(session *service.ExamSession, authService *service.AuthService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		session:     session,
		authService: authService,
		log:         log.With().Str("component", "exam_handler").Logger(),
	}
}

// registerResponse is returned once per registration; the token binds the
// client to this session id.
type registerResponse struct {
	Candidate model.Candidate `json:"candidate"`
	SessionID string          `json:"session_id"`
	Token     string          `json:"token"`
}

type violationResponse struct {
	ViolationCount    int                 `json:"violation_count"`
	ThresholdExceeded bool                `json:"threshold_exceeded"`
	Status            model.SessionStatus `json:"status"`
}

// Register godoc
// POST /api/v1/candidates
func (h *ExamHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sessionID, err := h.session.Register(c.Request.Context(), model.Candidate{
		Name:    req.Name,
		Contact: req.Contact,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	candidate, _ := h.session.Candidate()
	token, err := h.authService.GenerateCandidateToken(sessionID, candidate.Contact)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to sign candidate token")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, registerResponse{
		Candidate: candidate,
		SessionID: sessionID,
		Token:     token,
	})
}

// Instructions godoc
// GET /api/v1/exam/instructions
func (h *ExamHandler) Instructions(c *gin.Context) {
	response.Success(c, http.StatusOK, h.session.Instructions())
}

// Start godoc
// POST /api/v1/exam/start
// Requires {"agreed": true}.
func (h *ExamHandler) Start(c *gin.Context) {
	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil || !req.Agreed {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrAgreementMissing, map[string]string{
			"agreed": "agreed must be true",
		})
		return
	}

	if err := h.session.Start(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, h.session.View())
}

// State godoc
// GET /api/v1/exam/state
func (h *ExamHandler) State(c *gin.Context) {
	response.Success(c, http.StatusOK, h.session.View())
}

// CurrentQuestion godoc
// GET /api/v1/exam/question
func (h *ExamHandler) CurrentQuestion(c *gin.Context) {
	q, err := h.session.CurrentQuestion()
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// SelectAnswer godoc
// POST /api/v1/exam/answers
func (h *ExamHandler) SelectAnswer(c *gin.Context) {
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.session.SelectAnswer(c.Request.Context(), *req.QuestionID, *req.OptionIndex); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, h.session.View())
}

// Advance godoc
// POST /api/v1/exam/advance
func (h *ExamHandler) Advance(c *gin.Context) {
	if err := h.session.Advance(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.session.View())
}

// RecordViolation godoc
// POST /api/v1/exam/violations
// Body is optional; an absent reason is recorded as "unspecified".
func (h *ExamHandler) RecordViolation(c *gin.Context) {
	var req model.ViolationRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	report := h.session.RecordViolation(c.Request.Context(), req.Reason)
	response.Success(c, http.StatusOK, violationResponse{
		ViolationCount:    report.Count,
		ThresholdExceeded: report.ThresholdExceeded,
		Status:            h.session.Status(),
	})
}

// Finish godoc
// POST /api/v1/exam/finish
// Idempotent: a finished session returns its stored result.
func (h *ExamHandler) Finish(c *gin.Context) {
	result, err := h.session.Finish(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Result godoc
// GET /api/v1/exam/result
func (h *ExamHandler) Result(c *gin.Context) {
	result, err := h.session.ResultSummary()
	if err != nil {
		if errors.Is(err, service.ErrState) {
			response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
			return
		}
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *ExamHandler) fail(c *gin.Context, err error) {
	status, code, fields := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Exam operation failed")
	}
	if fields != nil {
		response.FailWithFields(c, status, code, fields)
		return
	}
	response.Fail(c, status, code)
}
