// Package hub fans chat events out to websocket subscribers. Each
// connection subscribes to at most one channel at a time; broadcasts are
// best-effort and never block or fail the caller.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/matechat/matechat/metrics"
)

// EventUserTyping is relayed to a channel's subscribers while someone types.
const EventUserTyping = "user_typing"

// An event is the server-to-client wire envelope.
type event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// typingPayload is the payload of a user_typing event.
type typingPayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// Hub tracks which connections are subscribed to which channel and delivers
// events to them.
type Hub struct {
	Logger *slog.Logger

	mu       sync.Mutex
	conns    map[*Conn]struct{}
	channels map[string]map[*Conn]struct{}
}

// New returns an empty hub.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		Logger:   logger,
		conns:    make(map[*Conn]struct{}),
		channels: make(map[string]map[*Conn]struct{}),
	}
}

// Broadcast delivers an event to every current subscriber of the channel.
// A connection whose send queue is full is dropped rather than blocking the
// broadcast; a client that misses events catches up with a full fetch.
func (h *Hub) Broadcast(channelID, eventType string, payload any) {
	data, err := json.Marshal(event{Type: eventType, Payload: payload})
	if err != nil {
		h.Logger.Error("Could not encode event", "error", err.Error(), "type", eventType)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.channels[channelID] {
		h.sendLocked(c, data)
	}
	metrics.EventsBroadcast.WithLabelValues(eventType).Inc()
}

// relayTyping delivers a typing indicator to every subscriber of the channel
// except the sender.
func (h *Hub) relayTyping(channelID string, sender *Conn, p typingPayload) {
	data, err := json.Marshal(event{Type: EventUserTyping, Payload: p})
	if err != nil {
		h.Logger.Error("Could not encode typing event", "error", err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.channels[channelID] {
		if c == sender {
			continue
		}
		h.sendLocked(c, data)
	}
	metrics.EventsBroadcast.WithLabelValues(EventUserTyping).Inc()
}

func (h *Hub) sendLocked(c *Conn, data []byte) {
	select {
	case c.send <- data:
	default:
		h.Logger.Info("Dropping slow connection", "connID", c.id)
		h.unregisterLocked(c)
	}
}

func (h *Hub) register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
	metrics.ActiveConnections.Inc()
}

// subscribe moves a connection onto a channel. Only one subscription is
// active per connection; joining a new channel leaves the previous one.
func (h *Hub) subscribe(c *Conn, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; !ok {
		return
	}
	if c.channelID != "" {
		delete(h.channels[c.channelID], c)
	}
	if h.channels[channelID] == nil {
		h.channels[channelID] = make(map[*Conn]struct{})
	}
	h.channels[channelID][c] = struct{}{}
	c.channelID = channelID
	h.Logger.Info("Connection joined channel", "connID", c.id, "channelID", channelID)
}

// unregister drops a connection and its subscription. Safe to call while a
// broadcast is in flight and safe to call more than once.
func (h *Hub) unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *Conn) {
	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)
	if c.channelID != "" {
		delete(h.channels[c.channelID], c)
	}
	close(c.send)
	metrics.ActiveConnections.Dec()
	h.Logger.Info("Connection closed", "connID", c.id)
}

// subscribers reports how many connections are subscribed to a channel.
func (h *Hub) subscribers(channelID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channelID])
}
