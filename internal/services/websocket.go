package services

import (
	"encoding/json"
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

// Client represents a WebSocket client
type Client struct {
	ID       uint
	UserType string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
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

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.ID == userID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastToUserType sends a message to all users of a specific type
func (h *Hub) BroadcastToUserType(userType string, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.UserType == userType {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocket message types
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InstantRequestNotice is pushed to nearby photographers when a new request
// opens or matching re-runs.
type InstantRequestNotice struct {
	RequestID      uint    `json:"requestId"`
	SessionType    string  `json:"sessionType"`
	Urgency        string  `json:"urgency"`
	BudgetAmount   int64   `json:"budgetAmount"`
	DistanceMeters float64 `json:"distanceMeters"`
	Landmark       string  `json:"landmark,omitempty"`
	ExpiresInMins  int     `json:"expiresInMins"`
}

// PhotographerAcceptedNotice tells the guest a photographer claimed their
// request and the approval window is open.
type PhotographerAcceptedNotice struct {
	RequestID            uint   `json:"requestId"`
	PhotographerID       uint   `json:"photographerId"`
	PhotographerName     string `json:"photographerName"`
	EstimatedArrivalMins int    `json:"estimatedArrivalMins"`
	ApprovalDeadline     string `json:"approvalDeadline"`
}

// MatchFoundNotice confirms the pairing to both sides.
type MatchFoundNotice struct {
	RequestID      uint  `json:"requestId"`
	PhotographerID uint  `json:"photographerId"`
	BookingID      uint  `json:"bookingId,omitempty"`
	TotalAmount    int64 `json:"totalAmount"`
}

// RequestTimeoutNotice tells a photographer their claim lapsed.
type RequestTimeoutNotice struct {
	RequestID uint `json:"requestId"`
}

// PhotosDeliveredNotice tells the guest their photos are ready.
type PhotosDeliveredNotice struct {
	RequestID  uint   `json:"requestId"`
	ArchiveURL string `json:"archiveUrl,omitempty"`
}

// PhotographerLocationUpdate mirrors a presence push to listening clients.
type PhotographerLocationUpdate struct {
	PhotographerID uint    `json:"photographerId"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	IsOnline       bool    `json:"isOnline"`
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, userType string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:       userID,
		UserType: userType,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
	}

	client.Hub.register <- client

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

		// Clients only send pings and read receipts today; state changes go
		// through the HTTP API so they hit the guarded updates.
		log.Printf("WebSocket message from client %d: %s", c.ID, wsMessage.Type)
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

func (h *Hub) sendEvent(userID uint, eventType string, data interface{}) {
	message := WebSocketMessage{Type: eventType, Data: data}
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}
	h.BroadcastToUser(userID, payload)
}

// SendInstantRequestNotice pushes a new open request to a photographer.
func (h *Hub) SendInstantRequestNotice(photographerID uint, notice InstantRequestNotice) {
	h.sendEvent(photographerID, "instant_request", notice)
}

// SendPhotographerAccepted pushes the accept notice to the guest's
// connection, keyed by request id since guests are not account holders.
func (h *Hub) SendPhotographerAccepted(guestConnID uint, notice PhotographerAcceptedNotice) {
	h.sendEvent(guestConnID, "photographer_accepted", notice)
}

// SendMatchFound pushes the confirmed match to a user.
func (h *Hub) SendMatchFound(userID uint, notice MatchFoundNotice) {
	h.sendEvent(userID, "match_found", notice)
}

// SendRequestTimeout tells a photographer their claim lapsed.
func (h *Hub) SendRequestTimeout(photographerID uint, notice RequestTimeoutNotice) {
	h.sendEvent(photographerID, "request_timeout", notice)
}

// SendPhotosDelivered tells a user the photos are ready.
func (h *Hub) SendPhotosDelivered(userID uint, notice PhotosDeliveredNotice) {
	h.sendEvent(userID, "photos_delivered", notice)
}

// SendPhotographerLocationUpdate mirrors a presence push to a user.
func (h *Hub) SendPhotographerLocationUpdate(userID uint, update PhotographerLocationUpdate) {
	h.sendEvent(userID, "photographer_location_update", update)
}
