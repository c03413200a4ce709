package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"forestval/internal/middleware"
	"forestval/internal/rotation"
	"forestval/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer for HTTP; sockets accept any origin with a valid token.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live session. Valuation requests on a connection are
// computed one at a time; while a computation runs, newer requests replace
// older queued ones so only the latest parameters are evaluated.
type Client struct {
	hub     *Hub
	svc     service.ValuationService
	conn    *websocket.Conn
	send    chan []byte
	pending chan service.ValuationRequest
	done    chan struct{}
	subject string
}

// ServeWs authenticates the token query parameter and upgrades the connection.
func ServeWs(hub *Hub, svc service.ValuationService, secret []byte, c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		hub.log.Warn("websocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, err := middleware.ParseToken(secret, tokenString)
	if err != nil {
		hub.log.Warn("websocket connection rejected: invalid token", "error", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:     hub,
		svc:     svc,
		conn:    conn,
		send:    make(chan []byte, 256),
		pending: make(chan service.ValuationRequest, 1),
		done:    make(chan struct{}),
		subject: claims.Subject,
	}
	hub.register <- client

	go client.writePump()
	go client.computeLoop()
	go client.readPump()
}

// writePump writes queued frames to the connection, one message per frame.
func (c *Client) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()
	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump decodes incoming frames and queues valuation requests.
func (c *Client) readPump() {
	defer func() {
		close(c.pending)
		<-c.done
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read failed", "subject", c.subject, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.replyError("malformed message: "+err.Error(), "invalid_input")
			continue
		}

		switch msg.Type {
		case TypeValuate:
			var req service.ValuationRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				c.replyError("malformed valuation request: "+err.Error(), "invalid_input")
				continue
			}
			c.enqueue(req)
		default:
			c.replyError("unknown message type "+msg.Type, "invalid_input")
		}
	}
}

// enqueue replaces any request still waiting to be computed.
func (c *Client) enqueue(req service.ValuationRequest) {
	select {
	case c.pending <- req:
	default:
		select {
		case <-c.pending:
		default:
		}
		c.pending <- req
	}
}

func (c *Client) computeLoop() {
	defer close(c.done)
	for req := range c.pending {
		c.compute(req)
	}
}

// compute answers one request. A panic fails that request only.
func (c *Client) compute(req service.ValuationRequest) {
	defer func() {
		if r := recover(); r != nil {
			c.hub.log.Error("websocket valuation panicked", "subject", c.subject, "panic", r)
			c.replyError("internal error", "internal")
		}
	}()

	res, err := c.svc.Valuate(context.Background(), c.subject, req)
	if err != nil {
		c.replyError(err.Error(), rotation.Kind(err))
		return
	}
	data, err := encode(TypeValuation, res)
	if err != nil {
		c.replyError("failed to encode valuation: "+err.Error(), "internal")
		return
	}
	c.reply(data)
}

func (c *Client) replyError(msg, kind string) {
	data, _ := json.Marshal(Message{Type: TypeError, Error: msg, Kind: kind})
	c.reply(data)
}

// reply never blocks; a client that stopped reading loses the frame.
func (c *Client) reply(data []byte) {
	select {
	case c.send <- data:
	default:
		c.hub.log.Warn("websocket send buffer full, dropping reply", "subject", c.subject)
	}
}
