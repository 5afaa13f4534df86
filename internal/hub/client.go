package hub

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gabble-chat/gabble/internal/schemas"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second

	sendQueueSize = 256
)

// EventHandler consumes decoded frames from a connection's read pump.
type EventHandler interface {
	HandleFrame(c *Client, frame schemas.Frame)
}

// Client is one persistent transport session. It is anonymous until a login
// frame binds it to an identity, and is destroyed when the transport closes;
// a connection that wants to change identity reconnects.
type Client struct {
	id      uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	handler EventHandler
	addr    string

	// identity and closed are guarded by hub.mu
	identity string
	closed   bool
}

// NewClient wraps an upgraded connection. The caller attaches it to the hub
// and starts the pumps.
func NewClient(conn *websocket.Conn, h *Hub, handler EventHandler, addr string) *Client {
	if conn != nil && h.maxMessageSize > 0 {
		conn.SetReadLimit(h.maxMessageSize)
	}
	return &Client{
		id:      uuid.New(),
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		hub:     h,
		handler: handler,
		addr:    addr,
	}
}

// Identity returns the display name this connection is bound to, or "" while
// anonymous.
func (c *Client) Identity() string {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.identity
}

// SendFrame encodes an event frame and queues it for this connection only.
func (c *Client) SendFrame(event string, payload any) error {
	frame, err := schemas.NewFrame(event, payload)
	if err != nil {
		return err
	}
	if !c.hub.safeSend(c, frame) {
		return errors.New("send queue unavailable")
	}
	return nil
}

// Close tears down the underlying transport. The read pump observes the
// closed connection and unwinds registry state through Detach.
func (c *Client) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Printf("error closing connection %s: %v", c.id, err)
	}
}

// ReadPump reads frames off the websocket and dispatches them in arrival
// order. Each connection's events are handled FIFO on this goroutine; events
// from different connections interleave freely. Runs until the transport
// closes, then detaches the connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Detach(c)
		c.Close()
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("error setting read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		var frame schemas.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("invalid frame from %s: %v", c.addr, err)
			continue
		}
		c.handler.HandleFrame(c, frame)
	}
}

// WritePump drains the send queue onto the websocket and keeps the
// connection alive with pings. One frame per websocket message.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("error setting write deadline for %s: %v", c.addr, err)
				return
			}
			if !ok {
				// Detach closed the queue
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("error writing to %s: %v", c.addr, err)
				}
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("client %s disconnected: %v", c.addr, err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		log.Printf("client %s connection closed", c.addr)
	default:
		log.Printf("websocket read error from %s: %v", c.addr, err)
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
