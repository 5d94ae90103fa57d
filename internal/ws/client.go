package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codearena/backend/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

// WSMessage is the envelope for every client event.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound event payloads
type FindMatchData struct {
	Topic string `json:"topic"`
}

type SessionData struct {
	SessionID string `json:"session_id"`
}

// Option is a pointer so an absent field is distinguishable from option 0.
type SubmitAnswerData struct {
	SessionID string `json:"session_id"`
	Option    *int   `json:"option"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: connection replaced or cleaned up
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for player %s: %v", c.playerID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for player %s: %v", c.playerID, err)
				return
			}
		}
	}
}

// readPump reads and dispatches client events until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for player %s: %v", c.playerID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage routes one inbound event to the matchmaker or session manager.
func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "find_match":
		var data FindMatchData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.Topic == "" {
			c.sendError("invalid find_match payload")
			return
		}
		err := c.hub.matchmaker.RequestMatch(context.Background(), data.Topic, c.playerID, c.username)
		if errors.Is(err, game.ErrUnknownTopic) {
			c.sendError("unknown topic: " + data.Topic)
		} else if errors.Is(err, game.ErrAlreadyInSession) {
			c.sendError("already in a match")
		} else if err != nil {
			log.Printf("[WS] find_match failed for player %s: %v", c.playerID, err)
			c.sendError("failed to find match")
		}

	case "cancel_match":
		c.hub.matchmaker.CancelWaiting(c.playerID)
		c.sendJSON(map[string]interface{}{"type": "match_cancelled"})

	case "player_ready":
		var data SessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.SessionID == "" {
			c.sendError("invalid player_ready payload")
			return
		}
		c.hub.sessions.PlayerReady(data.SessionID, c.playerID)

	case "submit_answer":
		var data SubmitAnswerData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.SessionID == "" || data.Option == nil {
			c.sendError("invalid submit_answer payload")
			return
		}
		c.hub.sessions.SubmitAnswer(data.SessionID, c.playerID, *data.Option)

	case "forfeit_match":
		var data SessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.SessionID == "" {
			c.sendError("invalid forfeit_match payload")
			return
		}
		c.hub.sessions.Forfeit(data.SessionID, c.playerID)

	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
