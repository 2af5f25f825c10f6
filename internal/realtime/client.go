package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Conn is the subset of a websocket connection the hub drives.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// TicketAccess decides whether a user may watch a ticket.
type TicketAccess interface {
	OwnsTicket(ctx context.Context, userID, ticketID string) bool
}

// Client is one websocket connection. Its topic set is guarded by the hub.
type Client struct {
	hub     *Hub
	userID  string
	send    chan []byte
	topics  map[string]struct{}
	limiter *rate.Limiter
}

// UserID returns the authenticated owner of the connection.
func (c *Client) UserID() string { return c.userID }

// Frames exposes the outbound queue. It is closed when the client is
// unregistered.
func (c *Client) Frames() <-chan []byte { return c.send }

// enqueue must be called with the hub lock held.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Serve runs the connection until either side closes it. Inbound frames
// are limited per connection; excess frames are ignored.
func (h *Hub) Serve(ctx context.Context, conn Conn, userID string, access TicketAccess) {
	client := h.Register(userID)
	if client == nil {
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		client.writePump(conn)
	}()

	client.readPump(ctx, conn, access)
	h.Unregister(client)
	<-done
}

func (c *Client) readPump(ctx context.Context, conn Conn, access TicketAccess) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("realtime read failed", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		c.handleFrame(ctx, payload, access)
	}
}

func (c *Client) handleFrame(ctx context.Context, payload []byte, access TicketAccess) {
	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return
	}
	var ticketID string
	if err := json.Unmarshal(frame.Data, &ticketID); err != nil {
		return
	}
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return
	}

	switch frame.Event {
	case EventJoinTicket:
		if access != nil && !access.OwnsTicket(ctx, c.userID, ticketID) {
			return
		}
		c.hub.Join(c, TicketTopic(ticketID))
	case EventLeaveTicket:
		c.hub.Leave(c, TicketTopic(ticketID))
	}
}

func (c *Client) writePump(conn Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
