package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// How long a question relayed over the socket may take.
	askTimeout = 45 * time.Second
)

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// trySend queues a message for the client without ever blocking.
// Messages to a client whose buffer is full are dropped.
func (c *WSClient) trySend(msg WSMessage) {
	select {
	case c.send <- msg:
	default:
	}
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; drop it from the hub. Its write
					// pump exits once the connection goes away.
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

// handleWebSocket upgrades HTTP connections to WebSocket. Clients
// receive dashboard_updated broadcasts and can submit questions over
// the socket for a processing → answer status flow.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, 256),
	}

	s.wsHub.Register(client)

	go s.wsWritePump(conn, client)
	go s.wsReadPump(conn, client)
}

// askPayload is the data of a "type":"ask" message.
type askPayload struct {
	Question string `json:"question"`
}

// wsReadPump pumps messages from the WebSocket connection to the hub.
func (s *Server) wsReadPump(conn *websocket.Conn, client *WSClient) {
	defer func() {
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data,omitempty"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "ask":
			var payload askPayload
			if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.Question == "" {
				client.trySend(WSMessage{
					Type: "error",
					Data: map[string]string{"message": "question is required"},
				})
				continue
			}
			go s.wsAsk(client, payload.Question, msg.Data)
		case "ping":
			client.trySend(WSMessage{Type: "pong"})
		}
	}
}

// wsAsk relays a question to the insight backend and streams status
// frames back to the asking client. A newer question from the same
// client simply produces its own frames; abandoned answers are
// delivered and ignored client-side, not cancelled.
func (s *Server) wsAsk(client *WSClient, question string, body []byte) {
	client.trySend(WSMessage{
		Type: "status",
		Data: map[string]string{"status": "processing"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	resp, status, err := s.insight.Ask(ctx, question, body)
	if err != nil || status < 200 || status >= 300 {
		if ans, ok := s.localAnswer(ctx, question); ok {
			s.log.Warn("insight backend down, serving local answer",
				zap.Int("status", status), zap.Error(err))
			client.trySend(WSMessage{Type: "answer", Data: ans})
			return
		}
		s.log.Warn("websocket ask failed", zap.Int("status", status), zap.Error(err))
		client.trySend(WSMessage{
			Type: "error",
			Data: map[string]string{"message": "failed to process your question"},
		})
		return
	}

	client.trySend(WSMessage{
		Type: "answer",
		Data: json.RawMessage(resp),
	})
}

// wsWritePump pumps messages from the hub to the WebSocket connection.
func (s *Server) wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(msg)
			if err != nil {
				s.log.Warn("websocket marshal error", zap.Error(err))
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			// Flush queued messages
			n := len(client.send)
			for i := 0; i < n; i++ {
				nextMsg := <-client.send
				nextData, err := json.Marshal(nextMsg)
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, nextData); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
