package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codearena/backend/internal/game"
)

// Client represents a connected WebSocket client
type Client struct {
	conn     *websocket.Conn
	playerID string
	username string
	hub      *Hub
	send     chan []byte
}

// Hub maintains the set of active clients and their room memberships, and
// dispatches inbound events to the matchmaker and session manager. It
// implements game.Broadcaster.
type Hub struct {
	clients    map[string]*Client            // playerID -> Client
	rooms      map[string]map[string]*Client // room -> playerID -> Client
	register   chan *Client
	unregister chan *Client
	matchmaker *game.Matchmaker
	sessions   *game.SessionManager
	mu         sync.RWMutex
}

// NewHub creates a hub; call SetGame before serving connections.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetGame wires the hub to the matchmaker and session manager. Done after
// construction because both sides reference each other.
func (h *Hub) SetGame(mm *game.Matchmaker, sm *game.SessionManager) {
	h.matchmaker = mm
	h.sessions = sm
}

// Run processes connect and disconnect events. Game-side reactions run after
// the hub lock is released; the session manager broadcasts back through the
// hub on its own lock.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if oldClient, exists := h.clients[client.playerID]; exists {
				log.Printf("[WS] Player %s reconnecting - closing old connection", client.playerID)
				oldClient.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"),
					time.Now().Add(5*time.Second))
				oldClient.conn.Close()
				select {
				case <-oldClient.send:
				default:
					close(oldClient.send)
				}
				h.removeFromRoomsLocked(oldClient.playerID)
			}
			h.clients[client.playerID] = client
			h.mu.Unlock()

			log.Printf("[WS] Player %s connected", client.playerID)

		case client := <-h.unregister:
			h.mu.Lock()
			current, ok := h.clients[client.playerID]
			if ok && current == client {
				delete(h.clients, client.playerID)
				h.removeFromRoomsLocked(client.playerID)
				select {
				case <-client.send:
				default:
					close(client.send)
				}
			}
			h.mu.Unlock()

			if ok && current == client {
				log.Printf("[WS] Player %s disconnected", client.playerID)
				// Disconnect is a game-ending event for a live session and
				// removes the player from any matchmaking queue.
				h.matchmaker.CancelWaiting(client.playerID)
				h.sessions.HandleDisconnect(client.playerID)
			}
		}
	}
}

// JoinRoom adds the player's connection to a named room.
func (h *Hub) JoinRoom(playerID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[playerID]
	if !exists {
		log.Printf("[WS] JoinRoom: no client for player %s", playerID)
		return
	}
	if _, exists := h.rooms[room]; !exists {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][playerID] = client
}

// LeaveRoom removes the player from a room, dropping the room when empty.
func (h *Hub) LeaveRoom(playerID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, exists := h.rooms[room]; exists {
		delete(members, playerID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// ToRoom sends a message to every player in a room.
func (h *Hub) ToRoom(room string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if members, exists := h.rooms[room]; exists {
		for _, client := range members {
			select {
			case client.send <- data:
			default:
				log.Printf("[WS] Send buffer full for player %s in room %s, dropping message", client.playerID, room)
			}
		}
	}
}

// ToPlayer sends a message to a specific player.
func (h *Hub) ToPlayer(playerID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[playerID]; exists {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] ToPlayer dropped message for player %s (buffer full)", playerID)
		}
	} else {
		log.Printf("[WS] ToPlayer no client for player %s", playerID)
	}
}

func (h *Hub) removeFromRoomsLocked(playerID string) {
	for room, members := range h.rooms {
		if _, ok := members[playerID]; ok {
			delete(members, playerID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}
