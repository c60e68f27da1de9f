package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/luminedu/assess-engine/internal/engine"
	"github.com/luminedu/assess-engine/internal/middleware"
	"github.com/luminedu/assess-engine/internal/service"
	ws "github.com/luminedu/assess-engine/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler streams a live attempt over WebSocket: countdown ticks flow out,
// answer actions flow in, and the finalized outcome closes the stream.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:sessionId/stream
// Upgrades to WebSocket for live countdown ticks and answer actions.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	sess, err := h.sessionService.GetOwned(sessionID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session with that ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("participant_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Participant connected")

	// The tick pump and the action loop both write to the connection.
	var writeMu sync.Mutex
	send := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := ws.WriteTyped(conn, v); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed")
		}
	}
	sendErr := func(msg string) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = ws.WriteError(conn, msg)
	}

	done := make(chan struct{})
	defer close(done)

	go h.tickPump(sess, send, done, wsLog)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionSelect:
			h.handleSelect(sess, &msg, send, sendErr)
		case ws.ActionClear:
			h.handleClear(sess, &msg, send, sendErr)
		case ws.ActionConfirm:
			conf, err := sess.Confirmation()
			if err != nil {
				sendErr("session is not in progress")
				continue
			}
			send(ws.ConfirmationResponse{
				Event:            ws.EventConfirmation,
				AttemptedCount:   conf.AttemptedCount,
				TotalQuestions:   conf.TotalQuestions,
				RemainingSeconds: conf.RemainingSeconds,
			})
		case ws.ActionSubmit:
			out, err := h.sessionService.Submit(context.Background(), sess.ID, claims.UserID)
			if out == nil {
				sendErr("submit failed: " + err.Error())
				continue
			}
			send(finalizedEvent(out))
			wsLog.Info().Str("trigger", string(out.Trigger)).Msg("Session submitted over stream")
			return
		case ws.ActionPing:
			send(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			sendErr("unknown action: " + string(msg.Action))
		}
	}
}

// tickPump forwards countdown ticks and announces the expiry outcome once
// the deadline fires.
func (h *WSHandler) tickPump(sess *engine.Session, send func(interface{}), done <-chan struct{}, wsLog zerolog.Logger) {
	ticks := sess.Ticks()
	if ticks == nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case left := <-ticks:
			send(ws.TickResponse{Event: ws.EventTick, RemainingSeconds: left})
			if left > 0 {
				continue
			}

			// Expiry finalization runs concurrently; wait for the outcome.
			for i := 0; i < 20; i++ {
				if out, err := sess.Result(); err == nil {
					send(finalizedEvent(out))
					wsLog.Info().Msg("Deadline outcome streamed")
					return
				}
				select {
				case <-done:
					return
				case <-time.After(100 * time.Millisecond):
				}
			}
			wsLog.Warn().Msg("Deadline fired but outcome never surfaced")
			return
		}
	}
}

func (h *WSHandler) handleSelect(sess *engine.Session, msg *ws.RequestEnvelope, send func(interface{}), sendErr func(string)) {
	if msg.QID == "" || msg.Option == nil {
		sendErr("q_id and option are required")
		return
	}
	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		sendErr("invalid q_id format")
		return
	}

	if err := sess.SelectOption(questionID, *msg.Option); err != nil {
		sendErr(err.Error())
		return
	}
	send(ws.SavedResponse{Event: ws.EventSaved, AttemptedCount: sess.AttemptedCount()})
}

func (h *WSHandler) handleClear(sess *engine.Session, msg *ws.RequestEnvelope, send func(interface{}), sendErr func(string)) {
	if msg.QID == "" {
		sendErr("q_id is required")
		return
	}
	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		sendErr("invalid q_id format")
		return
	}

	if err := sess.ClearSelection(questionID); err != nil {
		sendErr(err.Error())
		return
	}
	send(ws.SavedResponse{Event: ws.EventSaved, AttemptedCount: sess.AttemptedCount()})
}

func finalizedEvent(out *engine.Outcome) ws.FinalizedResponse {
	resp := ws.FinalizedResponse{
		Event:   ws.EventFinalized,
		Trigger: string(out.Trigger),
	}
	if out.Score != nil {
		resp.Score = out.Score
	}
	if out.Submission != nil {
		resp.Submission = out.Submission
	}
	return resp
}
