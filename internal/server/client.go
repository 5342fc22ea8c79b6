package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 16
)

// client is one websocket connection. send is written only by the simulation
// loop, which also closes it.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	remote  string
}

func newClient(conn *websocket.Conn, limiter *rate.Limiter, remote string) *client {
	return &client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: limiter,
		remote:  remote,
	}
}

// readPump forwards commands to the loop until the connection fails.
func (s *Server) readPump(c *client) {
	defer func() {
		select {
		case s.unregister <- c:
		case <-s.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read", "remote", c.remote, "error", err)
			}
			return
		}

		cmd := command{client: c}
		if err := json.Unmarshal(data, &cmd.env); err != nil {
			cmd.env = Envelope{Type: "invalid"}
		}
		cmd.throttled = !c.limiter.Allow()

		select {
		case s.commands <- cmd:
		case <-s.done:
			return
		}
	}
}

// writePump drains send and keeps the connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
