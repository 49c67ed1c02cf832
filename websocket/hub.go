package websocket

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Conn is the transport surface the hub needs from a live connection.
// *websocket.Conn from gofiber/contrib satisfies it; tests use fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one live connection. UserID stays uuid.Nil until the connection
// authenticates.
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	conn   Conn
}

// Hub is the in-memory connection registry: user id to connection set, plus
// topic rooms independent of user identity. It holds no durable state; a
// restart empties it and reconnecting clients repopulate it. All three
// indexes are guarded by one mutex so a reader never observes a connection
// present in one index but missing from another.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	users   map[uuid.UUID]map[*Client]struct{}
	topics  map[string]map[*Client]struct{}
	// memberships is the reverse topic index used to clean up on disconnect.
	memberships map[*Client]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		users:       make(map[uuid.UUID]map[*Client]struct{}),
		topics:      make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]map[string]struct{}),
	}
}

// Register creates a registry entry for a fresh connection, not yet bound to
// any user.
func (h *Hub) Register(conn Conn) *Client {
	client := &Client{ID: uuid.New(), conn: conn}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	log.Printf("Client registered: %s", client.ID)
	return client
}

// Authenticate binds the connection to a user. A user may hold any number of
// simultaneous connections.
func (h *Hub) Authenticate(client *Client, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	client.UserID = userID
	if h.users[userID] == nil {
		h.users[userID] = make(map[*Client]struct{})
	}
	h.users[userID][client] = struct{}{}
	log.Printf("Client %s authenticated as user %s", client.ID, userID)
}

func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][client] = struct{}{}
	if h.memberships[client] == nil {
		h.memberships[client] = make(map[string]struct{})
	}
	h.memberships[client][topic] = struct{}{}
}

func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromTopic(client, topic)
}

// Unregister removes the connection from every index. Emptied user and topic
// sets are dropped entirely; a user with no connections left is simply
// offline, not an error.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	if client.UserID != uuid.Nil {
		if set, ok := h.users[client.UserID]; ok {
			delete(set, client)
			if len(set) == 0 {
				delete(h.users, client.UserID)
			}
		}
	}

	for topic := range h.memberships[client] {
		h.removeFromTopic(client, topic)
	}
	delete(h.memberships, client)

	log.Printf("Client unregistered: %s", client.ID)
}

func (h *Hub) removeFromTopic(client *Client, topic string) {
	if set, ok := h.topics[topic]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.topics, topic)
		}
	}
	if subs, ok := h.memberships[client]; ok {
		delete(subs, topic)
	}
}

// SendToUser multicasts event to every live connection bound to userID and
// returns how many connections it reached. No connections is a no-op, not an
// error.
func (h *Hub) SendToUser(userID uuid.UUID, event interface{}) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.users[userID]))
	for client := range h.users[userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	return h.write(targets, event)
}

// SendToTopic multicasts to every subscriber of topic, regardless of user
// binding.
func (h *Hub) SendToTopic(topic string, event interface{}) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.topics[topic]))
	for client := range h.topics[topic] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	return h.write(targets, event)
}

// write delivers outside the lock so a slow socket never stalls the registry.
// A failed connection is closed and dropped without affecting the rest.
func (h *Hub) write(targets []*Client, event interface{}) int {
	sent := 0
	for _, client := range targets {
		if err := client.conn.WriteJSON(event); err != nil {
			log.Printf("Error sending event to client %s: %v", client.ID, err)
			client.conn.Close()
			h.Unregister(client)
			continue
		}
		sent++
	}
	return sent
}

// OnlineUsers reports how many distinct users currently hold at least one
// connection.
func (h *Hub) OnlineUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}
