package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Topic names clients can subscribe to. Collection topics mirror the data
// sets the app renders live; the admin transactions feed carries every
// rental event, while each customer gets their own transactions topic.
const (
	TopicBikes    = "bikes"
	TopicStations = "stations"
	TopicCatalog  = "catalog"
	TopicRentals  = "transactions"
)

// UserRentalsTopic returns the per-user transactions topic.
func UserRentalsTopic(userID uint) string {
	return fmt.Sprintf("transactions:%d", userID)
}

// Client represents a WebSocket client
type Client struct {
	ID     uint
	Role   string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
	topics map[string]bool
}

// Hub maintains the set of active clients and fans document change events
// out to topic subscribers.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("Client %d disconnected", client.ID)
		}
	}
}

// Subscribe adds the client to a topic. The admin-wide transactions feed is
// restricted to admin clients.
func (h *Hub) Subscribe(client *Client, topic string) error {
	if topic == TopicRentals && client.Role != "admin" {
		return fmt.Errorf("topic %q requires the admin role", topic)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	client.topics[topic] = true
	return nil
}

// Unsubscribe removes the client from a topic.
func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(client.topics, topic)
}

// BroadcastTopic sends a message to every client subscribed to the topic.
func (h *Hub) BroadcastTopic(topic string, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if !client.topics[topic] {
			continue
		}
		select {
		case client.Send <- message:
		default:
			// Client's send channel is full, skip
			log.Printf("Warning: Could not send to client %d (channel full)", client.ID)
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.ID != userID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			log.Printf("Warning: Could not send to client %d (channel full)", client.ID)
		}
	}
}

// ConnectedClients returns the number of connected clients
func (h *Hub) ConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocketMessage is the envelope for every frame in either direction.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscribeRequest is sent by a client to start or stop a topic feed.
type SubscribeRequest struct {
	Topic string `json:"topic"`
}

// DocumentEvent describes a change to one document of a collection,
// mirroring the snapshot updates the app used to receive.
type DocumentEvent struct {
	Collection string      `json:"collection"`
	Action     string      `json:"action"` // created, updated, deleted
	Document   interface{} `json:"document"`
}

// PublishDocumentEvent fans a document change out to the collection topic.
func (h *Hub) PublishDocumentEvent(topic string, event DocumentEvent) {
	message := WebSocketMessage{
		Type: "document_change",
		Data: event,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling document event: %v", err)
		return
	}

	h.BroadcastTopic(topic, data)
}

// PublishRentalEvent notifies the owning customer and the admin feed about
// a rental transaction change.
func (h *Hub) PublishRentalEvent(userID uint, event DocumentEvent) {
	message := WebSocketMessage{
		Type: "document_change",
		Data: event,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling rental event: %v", err)
		return
	}

	h.BroadcastTopic(UserRentalsTopic(userID), data)
	h.BroadcastTopic(TopicRentals, data)
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, role string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:     userID,
		Role:   role,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
		topics: map[string]bool{UserRentalsTopic(userID): true},
	}

	client.Hub.register <- client

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			log.Printf("Error unmarshaling WebSocket message: %v", err)
			continue
		}

		switch wsMessage.Type {
		case "subscribe":
			c.handleSubscribe(wsMessage.Data, true)
		case "unsubscribe":
			c.handleSubscribe(wsMessage.Data, false)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleSubscribe(data interface{}, subscribe bool) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}

	var req SubscribeRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Topic == "" {
		log.Printf("Client %d sent invalid subscribe request", c.ID)
		return
	}

	if !subscribe {
		c.Hub.Unsubscribe(c, req.Topic)
		return
	}

	if err := c.Hub.Subscribe(c, req.Topic); err != nil {
		reply, _ := json.Marshal(WebSocketMessage{
			Type: "error",
			Data: err.Error(),
		})
		select {
		case c.Send <- reply:
		default:
		}
	}
}
