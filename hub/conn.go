package hub

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendQueueSize  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// A Conn is one client's persistent connection.
type Conn struct {
	id   uuid.UUID
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte

	// channelID is the active subscription, guarded by hub.mu.
	channelID string
}

// clientMessage is the client-to-server wire envelope.
type clientMessage struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// it with the hub. The connection starts unsubscribed; the client joins a
// channel with a join_channel message.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("Could not upgrade connection", "error", err.Error())
		return
	}
	c := &Conn{
		id:   uuid.New(),
		hub:  h,
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
	}
	h.register(c)
	h.Logger.Info("Connection opened", "connID", c.id)

	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.Logger.Info("Discarding malformed client message", "connID", c.id, "error", err.Error())
			continue
		}

		switch msg.Type {
		case "join_channel":
			if msg.ChannelID == "" {
				continue
			}
			c.hub.subscribe(c, msg.ChannelID)
		case "typing_start", "typing_stop":
			c.hub.relayTyping(msg.ChannelID, c, typingPayload{
				UserID:   msg.UserID,
				Username: msg.Username,
				IsTyping: msg.Type == "typing_start",
			})
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
