package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/middleware"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
	ws "github.com/stemsi/exstem-proctor/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the exam session to the candidate's browser: timer ticks
// and state changes go out, answers and proctoring signals come in.
type WSHandler struct {
	session     *service.ExamSession
	authService *service.AuthService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(session *service.ExamSession, authService *service.AuthService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		session:     session,
		authService: authService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/exam/stream?token=...
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("session_id", claims.SessionKey).
		Str("contact", claims.Contact).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	events, cancel := h.session.Subscribe()
	defer cancel()

	ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: h.session.View()})

	done := make(chan struct{})
	defer close(done)
	go h.forward(conn, wsLog, claims.SessionKey, events, done)

	for {
		var msg ws.RequestPayload
		err := ws.ReadJSON(conn, &msg)
		if errors.Is(err, ws.ErrMalformedFrame) {
			ws.WriteError(conn, string(response.ErrInvalidPayload), response.GetMessage(response.ErrInvalidPayload), nil)
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if err := h.authService.ValidateCandidateSession(claims); err != nil {
			ws.WriteError(conn, string(response.ErrSessionInvalidated), response.GetMessage(response.ErrSessionInvalidated), nil)
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(c, conn, &msg)
		case ws.ActionAdvance:
			h.reply(conn, msg.Action, h.session.Advance(c.Request.Context()))
		case ws.ActionViolation:
			// Reports outside IN_PROGRESS are ignored but still acknowledged.
			h.session.RecordViolation(c.Request.Context(), msg.Reason)
			h.reply(conn, msg.Action, nil)
		case ws.ActionSubmit:
			h.handleSubmit(c, conn)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action), nil)
		}
	}
}

// forward relays session events to the socket until the read loop exits.
// Events belonging to another registration are not relayed.
func (h *WSHandler) forward(conn *ws.Conn, wsLog zerolog.Logger, sessionID string, events <-chan model.SessionEvent, done <-chan struct{}) {
	maxViolations := h.session.Instructions().MaxViolations
	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.SessionID != sessionID {
				continue
			}

			var err error
			switch event.Type {
			case model.EventTick:
				err = ws.WriteTyped(conn, ws.TickResponse{
					Event: ws.EventTick,
					TimeRemaining: model.TimeRemaining{
						Seconds: event.TimeRemaining,
						Warning: event.TimeRemaining < service.WarningThresholdSeconds,
					},
				})
			case model.EventViolation:
				err = ws.WriteTyped(conn, ws.ViolationResponse{
					Event:             ws.EventViolation,
					Reason:            event.Reason,
					ViolationCount:    event.ViolationCount,
					MaxViolations:     maxViolations,
					ThresholdExceeded: event.ViolationCount >= maxViolations,
				})
			case model.EventFinished:
				if event.Result != nil {
					err = ws.WriteTyped(conn, ws.FinishedResponse{Event: ws.EventFinished, Result: *event.Result})
				}
			default:
				err = ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: h.session.View()})
			}
			if err != nil {
				wsLog.Debug().Err(err).Str("event", string(event.Type)).Msg("Failed to relay session event")
			}
		}
	}
}

func (h *WSHandler) handleAnswer(c *gin.Context, conn *ws.Conn, msg *ws.RequestPayload) {
	if msg.QuestionID == nil || msg.OptionIndex == nil {
		ws.WriteError(conn, string(response.ErrValidation), response.GetMessage(response.ErrValidation), map[string]string{
			"question_id":  "question_id and option_index are required",
			"option_index": "question_id and option_index are required",
		})
		return
	}
	h.reply(conn, msg.Action, h.session.SelectAnswer(c.Request.Context(), *msg.QuestionID, *msg.OptionIndex))
}

// handleSubmit finishes the exam. The finished event reaches the client through
// the subscription; a repeated submit is answered directly with the stored result.
func (h *WSHandler) handleSubmit(c *gin.Context, conn *ws.Conn) {
	alreadyFinished := h.session.Status() == model.SessionStatusFinished

	result, err := h.session.Finish(c.Request.Context())
	if err != nil {
		h.reply(conn, ws.ActionSubmit, err)
		return
	}
	if alreadyFinished {
		ws.WriteTyped(conn, ws.FinishedResponse{Event: ws.EventFinished, Result: result})
		return
	}
	ws.WriteTyped(conn, ws.SuccessResponse{Event: ws.EventSuccess, Action: ws.ActionSubmit})
}

func (h *WSHandler) reply(conn *ws.Conn, action ws.Action, err error) {
	if err == nil {
		ws.WriteTyped(conn, ws.SuccessResponse{Event: ws.EventSuccess, Action: action})
		return
	}
	_, code, fields := classify(err)
	ws.WriteError(conn, string(code), response.GetMessage(code), fields)
}
