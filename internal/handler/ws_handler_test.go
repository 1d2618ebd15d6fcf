package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hireloop/interview-backend/internal/config"
	"github.com/hireloop/interview-backend/internal/middleware"
	"github.com/hireloop/interview-backend/internal/model"
	"github.com/hireloop/interview-backend/internal/repository"
	"github.com/hireloop/interview-backend/internal/service"
	ws "github.com/hireloop/interview-backend/internal/websocket"
)

// serverFrame is the union of every frame the control channel can push,
// so a single decode target covers all assertions.
type serverFrame struct {
	Type                 string `json:"type"`
	SessionID            string `json:"session_id"`
	HeartbeatIntervalSec int    `json:"heartbeat_interval_sec"`
	SessionActive        bool   `json:"session_active"`
	Action               string `json:"action"`
	CheatScore           int    `json:"cheat_score"`
	Reason               string `json:"reason"`
	Error                string `json:"error"`
}

type wsFixture struct {
	cfg         *config.Config
	store       *repository.MemoryInterviewStore
	mgr         *service.SessionManager
	srv         *httptest.Server
	candidateID uuid.UUID
	token       string
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:         "test-secret",
		HeartbeatInterval: 10 * time.Second,
	}
	store := repository.NewMemoryInterviewStore()
	mgr := service.NewSessionManager(store, service.StaticEvaluator{}, zerolog.Nop())
	proctoring := service.NewProctoringService(store, mgr, nil, nil, zerolog.Nop())
	authService := service.NewAuthService(cfg, nil, nil)
	wsHandler := NewWSHandler(nil, store, proctoring, cfg, zerolog.Nop())

	r := gin.New()
	wsGroup := r.Group("/ws/v1", middleware.RequireCandidateWSAuth(authService))
	wsGroup.GET("/proctoring/control", wsHandler.ProctoringControl)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	candidateID := uuid.New()
	return &wsFixture{
		cfg:         cfg,
		store:       store,
		mgr:         mgr,
		srv:         srv,
		candidateID: candidateID,
		token:       signCandidateToken(t, cfg, candidateID),
	}
}

func signCandidateToken(t *testing.T, cfg *config.Config, candidateID uuid.UUID) string {
	t.Helper()
	claims := &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: service.TokenTypeCandidate,
		UserID:    candidateID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// startSession seeds a startable interview for the given candidate and
// starts it, returning the live session ID.
func (f *wsFixture) startSession(t *testing.T, candidateID uuid.UUID) uuid.UUID {
	t.Helper()
	iv := &model.Interview{
		CandidateID: candidateID,
		TemplateID:  uuid.New(),
		AssignedBy:  uuid.New(),
		Status:      model.InterviewStatusScheduled,
		ScheduledAt: time.Now().Add(-time.Minute),
		Questions: model.QuestionSet{
			TemplateID:       uuid.New().String(),
			GeneratedAt:      time.Now().UTC(),
			GenerationMethod: "static",
			Questions:        service.StaticQuestions(),
		},
	}
	if err := f.store.CreateInterview(context.Background(), iv); err != nil {
		t.Fatalf("seed interview: %v", err)
	}
	res, err := f.mgr.Start(context.Background(), iv.ID, candidateID)
	if err != nil {
		t.Fatalf("start interview: %v", err)
	}
	return res.SessionID
}

func (f *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/v1/proctoring/control?token=" + f.token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v (resp=%v)", err, resp)
	}
	if resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var frame serverFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

// expectClose asserts that the next read fails with the given close code.
func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("expected connection to close, got a frame")
	}
	if !websocket.IsCloseError(err, code) {
		t.Fatalf("close error = %v, want code %d", err, code)
	}
}

func (f *wsFixture) handshake(t *testing.T, conn *websocket.Conn, sessionID uuid.UUID) {
	t.Helper()
	if err := conn.WriteJSON(ws.RequestEnvelope{
		Type:      ws.MessageHandshake,
		SessionID: sessionID.String(),
	}); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
	ack := readFrame(t, conn)
	if ack.Type != string(ws.ResponseHandshakeAck) {
		t.Fatalf("first frame type = %q, want HANDSHAKE_ACK", ack.Type)
	}
	if ack.SessionID != sessionID.String() {
		t.Fatalf("ack session_id = %q, want %q", ack.SessionID, sessionID)
	}
}

func TestControlHandshake(t *testing.T) {
	f := newWSFixture(t)
	sessionID := f.startSession(t, f.candidateID)
	conn := f.dial(t)

	if err := conn.WriteJSON(ws.RequestEnvelope{
		Type:      ws.MessageHandshake,
		SessionID: sessionID.String(),
	}); err != nil {
		t.Fatalf("write handshake: %v", err)
	}

	ack := readFrame(t, conn)
	if ack.Type != string(ws.ResponseHandshakeAck) {
		t.Fatalf("type = %q, want HANDSHAKE_ACK", ack.Type)
	}
	if ack.SessionID != sessionID.String() {
		t.Errorf("session_id = %q, want %q", ack.SessionID, sessionID)
	}
	if ack.HeartbeatIntervalSec != 10 {
		t.Errorf("heartbeat_interval_sec = %d, want 10", ack.HeartbeatIntervalSec)
	}
}

func TestControlRejectsNonHandshakeFirstMessage(t *testing.T) {
	f := newWSFixture(t)
	f.startSession(t, f.candidateID)
	conn := f.dial(t)

	if err := conn.WriteJSON(ws.RequestEnvelope{Type: ws.MessageHeartbeat}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}
	expectClose(t, conn, websocket.ClosePolicyViolation)
}

func TestControlRejectsUnknownSession(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t)

	if err := conn.WriteJSON(ws.RequestEnvelope{
		Type:      ws.MessageHandshake,
		SessionID: uuid.NewString(),
	}); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
	expectClose(t, conn, websocket.ClosePolicyViolation)
}

func TestControlRejectsForeignSession(t *testing.T) {
	f := newWSFixture(t)
	// Session belongs to a different candidate than the token holder.
	foreignSession := f.startSession(t, uuid.New())
	conn := f.dial(t)

	if err := conn.WriteJSON(ws.RequestEnvelope{
		Type:      ws.MessageHandshake,
		SessionID: foreignSession.String(),
	}); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
	expectClose(t, conn, websocket.ClosePolicyViolation)
}

func TestHeartbeatReportsLiveSession(t *testing.T) {
	f := newWSFixture(t)
	sessionID := f.startSession(t, f.candidateID)
	conn := f.dial(t)
	f.handshake(t, conn, sessionID)

	if err := conn.WriteJSON(ws.RequestEnvelope{Type: ws.MessageHeartbeat}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}
	ack := readFrame(t, conn)
	if ack.Type != string(ws.ResponseHeartbeatAck) {
		t.Fatalf("type = %q, want HEARTBEAT_ACK", ack.Type)
	}
	if !ack.SessionActive {
		t.Error("session_active = false, want true")
	}
}

func TestHeartbeatAfterOutOfBandTermination(t *testing.T) {
	f := newWSFixture(t)
	sessionID := f.startSession(t, f.candidateID)
	conn := f.dial(t)
	f.handshake(t, conn, sessionID)

	if err := f.mgr.Terminate(context.Background(), sessionID, "terminated elsewhere"); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	if err := conn.WriteJSON(ws.RequestEnvelope{Type: ws.MessageHeartbeat}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}
	ack := readFrame(t, conn)
	if ack.Type != string(ws.ResponseHeartbeatAck) {
		t.Fatalf("type = %q, want HEARTBEAT_ACK", ack.Type)
	}
	if ack.SessionActive {
		t.Error("session_active = true, want false")
	}

	push := readFrame(t, conn)
	if push.Type != string(ws.ResponseTerminate) {
		t.Fatalf("type = %q, want TERMINATE", push.Type)
	}
	expectClose(t, conn, websocket.CloseNormalClosure)
}

func TestMalformedMessageGetsErrorAndConnectionSurvives(t *testing.T) {
	f := newWSFixture(t)
	sessionID := f.startSession(t, f.candidateID)
	conn := f.dial(t)
	f.handshake(t, conn, sessionID)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{this is not json")); err != nil {
		t.Fatalf("write malformed: %v", err)
	}
	reply := readFrame(t, conn)
	if reply.Type != string(ws.ResponseError) {
		t.Fatalf("type = %q, want ERROR", reply.Type)
	}

	// The connection must keep serving after the bad frame.
	if err := conn.WriteJSON(ws.RequestEnvelope{Type: ws.MessageHeartbeat}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}
	ack := readFrame(t, conn)
	if ack.Type != string(ws.ResponseHeartbeatAck) {
		t.Fatalf("type = %q, want HEARTBEAT_ACK", ack.Type)
	}
	if !ack.SessionActive {
		t.Error("session_active = false, want true")
	}
}

func TestUnknownMessageTypeIsIgnored(t *testing.T) {
	f := newWSFixture(t)
	sessionID := f.startSession(t, f.candidateID)
	conn := f.dial(t)
	f.handshake(t, conn, sessionID)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"NOPE"}`)); err != nil {
		t.Fatalf("write unknown type: %v", err)
	}
	// No reply to the unknown type; the very next frame must answer the
	// heartbeat that follows.
	if err := conn.WriteJSON(ws.RequestEnvelope{Type: ws.MessageHeartbeat}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}
	ack := readFrame(t, conn)
	if ack.Type != string(ws.ResponseHeartbeatAck) {
		t.Fatalf("type = %q, want HEARTBEAT_ACK", ack.Type)
	}
}

func TestEventSoftViolationFlags(t *testing.T) {
	f := newWSFixture(t)
	sessionID := f.startSession(t, f.candidateID)
	conn := f.dial(t)
	f.handshake(t, conn, sessionID)

	if err := conn.WriteJSON(ws.RequestEnvelope{
		Type:       ws.MessageEvent,
		EventType:  string(model.EventTabSwitch),
		Confidence: 0.9,
	}); err != nil {
		t.Fatalf("write event: %v", err)
	}
	verdict := readFrame(t, conn)
	if verdict.Type != string(ws.ResponseVerdict) {
		t.Fatalf("type = %q, want VERDICT", verdict.Type)
	}
	if verdict.Action != string(model.ActionFlag) {
		t.Errorf("action = %q, want FLAG", verdict.Action)
	}
	if verdict.CheatScore != model.TabSwitchPenalty {
		t.Errorf("cheat_score = %d, want %d", verdict.CheatScore, model.TabSwitchPenalty)
	}
}

func TestEventHardViolationTerminates(t *testing.T) {
	f := newWSFixture(t)
	sessionID := f.startSession(t, f.candidateID)
	conn := f.dial(t)
	f.handshake(t, conn, sessionID)

	if err := conn.WriteJSON(ws.RequestEnvelope{
		Type:       ws.MessageEvent,
		EventType:  string(model.EventMultiFace),
		Confidence: 0.95,
	}); err != nil {
		t.Fatalf("write event: %v", err)
	}
	verdict := readFrame(t, conn)
	if verdict.Type != string(ws.ResponseVerdict) {
		t.Fatalf("type = %q, want VERDICT", verdict.Type)
	}
	if verdict.Action != string(model.ActionTerminate) {
		t.Errorf("action = %q, want TERMINATE", verdict.Action)
	}

	push := readFrame(t, conn)
	if push.Type != string(ws.ResponseTerminate) {
		t.Fatalf("type = %q, want TERMINATE push", push.Type)
	}
	expectClose(t, conn, websocket.CloseNormalClosure)

	sess, err := f.store.SessionByID(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if sess.Status != model.SessionStatusTerminated {
		t.Errorf("session status = %s, want TERMINATED", sess.Status)
	}
}
