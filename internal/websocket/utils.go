package websocket

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// PolicyViolation is the close code sent when a connection fails protocol
// validation (bad handshake, unauthorized session).
const PolicyViolation = websocket.ClosePolicyViolation

// Conn wraps a gorilla connection with a write lock. The read loop and the
// pub/sub forwarder goroutine both send frames on the same connection, and
// gorilla permits at most one concurrent writer, so every outbound frame
// goes through this lock.
type Conn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

// NewConn wraps an upgraded connection.
func NewConn(c *websocket.Conn) *Conn {
	return &Conn{Conn: c}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(c *Conn, v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.Conn.WriteJSON(v)
}

// WriteError sends a typed ErrorMessage over the WebSocket.
func WriteError(c *Conn, errMsg string) error {
	return WriteTyped(c, ErrorMessage{
		Type:  ResponseError,
		Error: errMsg,
	})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(c *Conn, v interface{}) error {
	c.Conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	return c.Conn.ReadJSON(v)
}

// IsDecodeError reports whether err came from decoding a delivered frame
// rather than from the transport. The frame arrived in full, so the
// connection is still usable and the caller should reply instead of closing.
func IsDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// Close sends a close frame with the given code and reason, then closes the
// underlying connection.
func Close(c *Conn, code int, reason string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(5 * time.Second)
	_ = c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = c.Conn.Close()
}
