package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/config"
	"github.com/hireloop/interview-backend/internal/middleware"
	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/repository"
	"github.com/hireloop/interview-backend/internal/service"
	ws "github.com/hireloop/interview-backend/internal/websocket"
)

// handshakeTimeout bounds how long a fresh connection may sit silent before
// sending its HANDSHAKE.
const handshakeTimeout = 10 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
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

// WSHandler handles the proctoring WebSocket surfaces: the persistent
// control channel and the accept-and-discard media channel.
type WSHandler struct {
	rdb        *redis.Client
	store      repository.InterviewStore
	proctoring *service.ProctoringService
	cfg        *config.Config
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	rdb *redis.Client,
	store repository.InterviewStore,
	proctoring *service.ProctoringService,
	cfg *config.Config,
	log zerolog.Logger,
) *WSHandler {
	return &WSHandler{
		rdb:        rdb,
		store:      store,
		proctoring: proctoring,
		cfg:        cfg,
		log:        log.With().Str("component", "ws_handler").Logger(),
		upgrader:   buildUpgrader(cfg.AllowedOrigins),
	}
}

// ProctoringControl godoc
// WS /ws/v1/proctoring/control?token=...
// Persistent control channel for one answering session. The first message
// must be a HANDSHAKE naming the session; anything else closes the
// connection with a policy-violation frame.
func (h *WSHandler) ProctoringControl(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)

	sess, ok := h.acceptHandshake(c.Request.Context(), conn, claims.UserID)
	if !ok {
		return
	}

	wsLog := h.log.With().
		Str("candidate_id", claims.UserID.String()).
		Str("session_id", sess.ID.String()).
		Logger()
	wsLog.Info().Msg("Control channel established")

	// Forward server-initiated control messages for this interview. The
	// subscription spans nodes: whichever instance decides to terminate
	// publishes, and the node holding the connection delivers.
	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.forwardControl(subCtx, conn, sess.InterviewID, wsLog)

	defer conn.Close()
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			// A frame that arrived but failed to decode is the client's
			// problem, not the connection's: tell them and keep reading.
			if ws.IsDecodeError(err) {
				wsLog.Debug().Err(err).Msg("Malformed message")
				ws.WriteError(conn, "malformed message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Type {
		case ws.MessageHeartbeat:
			if terminated := h.handleHeartbeat(conn, sess.ID); terminated {
				return
			}
		case ws.MessageEvent:
			if terminated := h.handleEvent(c.Request.Context(), conn, wsLog, sess, &msg); terminated {
				return
			}
		case ws.MessageHandshake:
			ws.WriteError(conn, "handshake already completed")
		default:
			// Unrecognized types are absorbed so older servers stay
			// compatible with newer clients.
			wsLog.Debug().Str("type", string(msg.Type)).Msg("Ignoring unknown message type")
		}
	}
}

// acceptHandshake reads and validates the opening HANDSHAKE. On any failure
// the connection is closed with a policy-violation frame and ok is false.
func (h *WSHandler) acceptHandshake(ctx context.Context, conn *ws.Conn, candidateID uuid.UUID) (*model.Session, bool) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	var msg ws.RequestEnvelope
	if err := conn.ReadJSON(&msg); err != nil {
		ws.Close(conn, ws.PolicyViolation, "handshake required")
		return nil, false
	}
	if msg.Type != ws.MessageHandshake {
		ws.Close(conn, ws.PolicyViolation, "first message must be HANDSHAKE")
		return nil, false
	}

	sessionID, err := uuid.Parse(msg.SessionID)
	if err != nil {
		ws.Close(conn, ws.PolicyViolation, "invalid session_id")
		return nil, false
	}

	sess, err := h.store.SessionByID(ctx, sessionID)
	if err != nil {
		ws.Close(conn, ws.PolicyViolation, "unknown session")
		return nil, false
	}
	if sess.CandidateID != candidateID {
		ws.Close(conn, ws.PolicyViolation, "session does not belong to caller")
		return nil, false
	}
	if sess.Status != model.SessionStatusActive {
		ws.Close(conn, ws.PolicyViolation, "session is not active")
		return nil, false
	}

	ws.WriteTyped(conn, ws.HandshakeAck{
		Type:                 ws.ResponseHandshakeAck,
		SessionID:            sess.ID.String(),
		HeartbeatIntervalSec: int(h.cfg.HeartbeatInterval.Seconds()),
	})
	return sess, true
}

// handleHeartbeat answers with the session's current liveness so a client
// whose session was terminated out-of-band finds out on its next beat. A
// terminated session also gets the TERMINATE push here, covering the window
// where the pub/sub message raced the connection; returns true in that case
// after closing the socket.
func (h *WSHandler) handleHeartbeat(conn *ws.Conn, sessionID uuid.UUID) bool {
	var status model.SessionStatus
	if sess, err := h.store.SessionByID(context.Background(), sessionID); err == nil {
		status = sess.Status
	}

	ws.WriteTyped(conn, ws.HeartbeatAck{
		Type:          ws.ResponseHeartbeatAck,
		SessionActive: status == model.SessionStatusActive,
	})

	if status == model.SessionStatusTerminated {
		ws.WriteTyped(conn, ws.Terminate{
			Type:   ws.ResponseTerminate,
			Reason: "session terminated",
		})
		ws.Close(conn, websocket.CloseNormalClosure, "terminated")
		return true
	}
	return false
}

// handleEvent routes a reported proctoring event through the shared verdict
// pipeline. Returns true when the verdict terminated the session, in which
// case the TERMINATE push has been sent and the connection closed.
func (h *WSHandler) handleEvent(ctx context.Context, conn *ws.Conn, wsLog zerolog.Logger, sess *model.Session, msg *ws.RequestEnvelope) bool {
	verdict, err := h.proctoring.HandleEvent(ctx, sess.ID, sess.CandidateID, msg.EventType, msg.Confidence)
	if err != nil {
		wsLog.Warn().Err(err).Str("event_type", msg.EventType).Msg("Event rejected")
		ws.WriteError(conn, "event rejected")
		return false
	}

	ws.WriteTyped(conn, ws.Verdict{
		Type:       ws.ResponseVerdict,
		Action:     string(verdict.Action),
		CheatScore: verdict.CheatScore,
	})

	if verdict.Action == model.ActionTerminate {
		ws.WriteTyped(conn, ws.Terminate{
			Type:   ws.ResponseTerminate,
			Reason: "proctoring violation: " + msg.EventType,
		})
		ws.Close(conn, websocket.CloseNormalClosure, "terminated")
		return true
	}
	return false
}

// forwardControl relays Pub/Sub control messages to the client until the
// connection context is cancelled. A TERMINATE push also closes the socket.
func (h *WSHandler) forwardControl(ctx context.Context, conn *ws.Conn, interviewID uuid.UUID, wsLog zerolog.Logger) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.Subscribe(ctx, config.CacheKey.InterviewControlChannel(interviewID.String()))
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, open := <-sub.Channel():
			if !open {
				return
			}
			var msg service.ControlMessage
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				wsLog.Warn().Err(err).Msg("Malformed control message")
				continue
			}
			if msg.Type == "TERMINATE" {
				ws.WriteTyped(conn, ws.Terminate{
					Type:   ws.ResponseTerminate,
					Reason: msg.Reason,
				})
				ws.Close(conn, websocket.CloseNormalClosure, "terminated")
				return
			}
		}
	}
}

// ProctoringMedia godoc
// WS /ws/v1/proctoring/media?token=...&session_id=...
// Accepts the candidate's media stream and discards every frame. The
// endpoint exists so clients exercise their full upload path; analysis
// happens client-side.
func (h *WSHandler) ProctoringMedia(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Query("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_id"})
		return
	}

	sess, err := h.store.SessionByID(c.Request.Context(), sessionID)
	if err != nil || sess.CandidateID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Debug().Str("session_id", sessionID.String()).Msg("Media channel open")

	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		// Frames are intentionally dropped.
	}
}
