package websocket

// ─── Messages (Client → Server) ─────────────────────────────────────

type MessageType string

const (
	MessageHandshake MessageType = "HANDSHAKE"
	MessageHeartbeat MessageType = "HEARTBEAT"
	MessageEvent     MessageType = "EVENT"
)

// RequestEnvelope is used to peek at the type before full parsing.
type RequestEnvelope struct {
	Type MessageType `json:"type"`

	// Handshake fields.
	SessionID string `json:"session_id,omitempty"`

	// Event fields.
	EventType  string  `json:"event_type,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ─── Messages (Server → Client) ─────────────────────────────────────

type ResponseType string

const (
	ResponseHandshakeAck ResponseType = "HANDSHAKE_ACK"
	ResponseHeartbeatAck ResponseType = "HEARTBEAT_ACK"
	ResponseVerdict      ResponseType = "VERDICT"
	ResponseTerminate    ResponseType = "TERMINATE"
	ResponseError        ResponseType = "ERROR"
)

// HandshakeAck confirms the control channel is established and tells the
// client how often to send heartbeats.
type HandshakeAck struct {
	Type                 ResponseType `json:"type"`
	SessionID            string       `json:"session_id"`
	HeartbeatIntervalSec int          `json:"heartbeat_interval_sec"`
}

// HeartbeatAck answers a heartbeat with the session's liveness.
type HeartbeatAck struct {
	Type          ResponseType `json:"type"`
	SessionActive bool         `json:"session_active"`
}

// Verdict is the server's response to a reported proctoring event.
type Verdict struct {
	Type       ResponseType `json:"type"`
	Action     string       `json:"action"`
	CheatScore int          `json:"cheat_score"`
}

// Terminate is the server-initiated push that forces the client to end the
// interview immediately.
type Terminate struct {
	Type   ResponseType `json:"type"`
	Reason string       `json:"reason"`
}

// ErrorMessage reports a non-fatal protocol error to the client.
type ErrorMessage struct {
	Type  ResponseType `json:"type"`
	Error string       `json:"error"`
}
