package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// wsWriteMessage sets a short write deadline and writes a message.
func (c *Client) wsWriteMessage(conn *websocket.Conn, mt int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// wsWritePing sends a ping control frame under the writer lock.
func (c *Client) wsWritePing(conn *websocket.Conn) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
}

// wsWriteClose sends a close control frame with the given code and reason.
func (c *Client) wsWriteClose(conn *websocket.Conn, code int, reason string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}
