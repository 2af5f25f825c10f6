// Package realtime pushes ticket changes to connected websocket clients.
//
// Connections subscribe to topics: every connection is in its user's
// private topic ("user-<id>") and may join ticket topics ("ticket-<id>").
// Delivery is best effort; a client whose queue is full misses frames.
package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	EventTicketUpdate = "ticketUpdate"
	EventNotification = "notification"
	EventJoinTicket   = "joinTicket"
	EventLeaveTicket  = "leaveTicket"

	defaultSendBuffer        = 32
	defaultMessagesPerSecond = 5
)

// Frame is the envelope of every message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Options tunes per-connection resources.
type Options struct {
	SendBuffer        int
	MessagesPerSecond float64
}

// Hub tracks connected clients and their topic memberships. A nil *Hub is
// valid and drops everything.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Client]struct{}
	clients map[*Client]struct{}
	closed  bool

	opts    Options
	logger  *zap.Logger
	dropped atomic.Int64
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, opts Options) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.MessagesPerSecond <= 0 {
		opts.MessagesPerSecond = defaultMessagesPerSecond
	}
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		opts:    opts,
		logger:  logger,
	}
}

// UserTopic is the private topic of a user.
func UserTopic(userID string) string { return "user-" + userID }

// TicketTopic is the topic of a single ticket.
func TicketTopic(ticketID string) string { return "ticket-" + ticketID }

// Register adds a client for userID and subscribes it to the user topic.
// It returns nil once the hub is closed.
func (h *Hub) Register(userID string) *Client {
	if h == nil {
		return nil
	}
	burst := int(h.opts.MessagesPerSecond)
	if burst < 1 {
		burst = 1
	}
	client := &Client{
		hub:     h,
		userID:  userID,
		send:    make(chan []byte, h.opts.SendBuffer),
		topics:  make(map[string]struct{}),
		limiter: rate.NewLimiter(rate.Limit(h.opts.MessagesPerSecond), burst),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.clients[client] = struct{}{}
	h.joinLocked(client, UserTopic(userID))
	h.logger.Debug("realtime client connected", zap.String("user_id", userID), zap.Int("clients", len(h.clients)))
	return client
}

// Unregister removes the client from every topic and closes its queue.
func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(client)
}

func (h *Hub) unregisterLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	for topic := range client.topics {
		h.leaveLocked(client, topic)
	}
	delete(h.clients, client)
	close(client.send)
	h.logger.Debug("realtime client disconnected", zap.String("user_id", client.userID), zap.Int("clients", len(h.clients)))
}

// Join subscribes client to topic.
func (h *Hub) Join(client *Client, topic string) {
	if h == nil || client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	h.joinLocked(client, topic)
}

// Leave unsubscribes client from topic.
func (h *Hub) Leave(client *Client, topic string) {
	if h == nil || client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, topic)
}

func (h *Hub) joinLocked(client *Client, topic string) {
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Client]struct{})
		h.topics[topic] = members
	}
	members[client] = struct{}{}
	client.topics[topic] = struct{}{}
}

func (h *Hub) leaveLocked(client *Client, topic string) {
	if members, ok := h.topics[topic]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(client.topics, topic)
}

// BroadcastTicketEvent sends a ticketUpdate frame to everyone subscribed to
// the ticket's topic. When announceTo is set the frame also goes to that
// user's private topic, which is how a brand-new ticket reaches its owner
// before anyone could have joined it. A connection in both receives it once.
func (h *Hub) BroadcastTicketEvent(ticketID, announceTo string, data any) {
	if h == nil {
		return
	}
	topics := []string{TicketTopic(ticketID)}
	if announceTo != "" {
		topics = append(topics, UserTopic(announceTo))
	}
	h.publish(EventTicketUpdate, data, topics...)
}

// NotifyUser sends a notification frame to every connection of userID.
func (h *Hub) NotifyUser(userID string, data any) {
	if h == nil {
		return
	}
	h.publish(EventNotification, data, UserTopic(userID))
}

func (h *Hub) publish(event string, data any, topics ...string) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("encode realtime frame", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]struct{})
	for _, topic := range topics {
		for client := range h.topics[topic] {
			if _, dup := seen[client]; dup {
				continue
			}
			seen[client] = struct{}{}
			if !client.enqueue(frame) {
				h.dropped.Add(1)
				h.logger.Debug("realtime frame dropped", zap.String("user_id", client.userID), zap.String("event", event))
			}
		}
	}
}

// Close disconnects every client. Later registrations are refused.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for client := range h.clients {
		h.unregisterLocked(client)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TopicSize returns how many clients are subscribed to topic.
func (h *Hub) TopicSize(topic string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Dropped returns how many frames were discarded because a queue was full.
func (h *Hub) Dropped() int64 {
	if h == nil {
		return 0
	}
	return h.dropped.Load()
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}
