package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrUnknownTopic is returned when a match is requested for a topic that has
// no matchmaking queue.
var ErrUnknownTopic = errors.New("no matchmaking queue for topic")

// ErrAlreadyInSession is returned when a player with a live session requests
// a match. They must finish or forfeit first.
var ErrAlreadyInSession = errors.New("player already in an active session")

// waitingEntry represents a player waiting in a topic queue
type waitingEntry struct {
	PlayerID string
	Username string
	JoinedAt time.Time
}

// Matchmaker pairs players requesting the same topic, strict FIFO per queue.
// Queues are seeded once from the question bank's topic list at startup.
type Matchmaker struct {
	queues   map[string][]waitingEntry // topic -> waiting players, oldest first
	sessions *SessionManager
	hub      Broadcaster
	mu       sync.Mutex
}

// NewMatchmaker creates a matchmaker with no queues; call Seed before serving.
func NewMatchmaker(sessions *SessionManager, hub Broadcaster) *Matchmaker {
	return &Matchmaker{
		queues:   make(map[string][]waitingEntry),
		sessions: sessions,
		hub:      hub,
	}
}

// Seed creates one empty queue per topic. Topics without a queue reject
// match requests, so the server blocks readiness on this.
func (m *Matchmaker) Seed(topics []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, topic := range topics {
		if _, exists := m.queues[topic]; !exists {
			m.queues[topic] = []waitingEntry{}
		}
	}
	log.Printf("[MATCHMAKING] Seeded %d topic queues", len(topics))
}

// Topics returns the set of topics with a matchmaking queue.
func (m *Matchmaker) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	topics := make([]string, 0, len(m.queues))
	for topic := range m.queues {
		topics = append(topics, topic)
	}
	return topics
}

// RequestMatch pairs the player with the longest-waiting entry for the topic,
// or enqueues them if nobody is waiting. A player requesting again while
// already queued is moved to the new topic's tail.
func (m *Matchmaker) RequestMatch(ctx context.Context, topic, playerID, username string) error {
	// A player with a live session cannot hold a second one; pairing them
	// again would leave the first session without disconnect tracking.
	if m.sessions.InSession(playerID) {
		return ErrAlreadyInSession
	}

	m.mu.Lock()

	if _, exists := m.queues[topic]; !exists {
		m.mu.Unlock()
		return ErrUnknownTopic
	}

	// Drop any previous wait by this player so they occupy one queue at most
	m.removeLocked(playerID)

	queue := m.queues[topic]
	if len(queue) == 0 {
		m.queues[topic] = append(queue, waitingEntry{
			PlayerID: playerID,
			Username: username,
			JoinedAt: time.Now(),
		})
		m.mu.Unlock()

		log.Printf("[MATCHMAKING] Player %s waiting for topic %q", playerID, topic)
		m.hub.ToPlayer(playerID, map[string]interface{}{
			"type":  "waiting_for_match",
			"topic": topic,
		})
		return nil
	}

	// Oldest waiter first, never skipping
	opponent := queue[0]
	m.queues[topic] = queue[1:]
	m.mu.Unlock()

	log.Printf("[MATCHMAKING] Pairing %s with %s on topic %q", opponent.PlayerID, playerID, topic)

	// Pairing decision is final at this point; session creation side effects
	// (DB writes, room joins, match_found) happen after the queues are settled.
	_, err := m.sessions.CreateSession(ctx, topic,
		PlayerInfo{ID: opponent.PlayerID, Username: opponent.Username},
		PlayerInfo{ID: playerID, Username: username},
	)
	return err
}

// CancelWaiting removes the player from whichever queue holds them.
// It is a no-op when the player is not waiting; invoked on disconnect.
func (m *Matchmaker) CancelWaiting(playerID string) {
	m.mu.Lock()
	removed := m.removeLocked(playerID)
	m.mu.Unlock()

	if removed {
		log.Printf("[MATCHMAKING] Player %s left the queue", playerID)
	}
}

// IsWaiting reports whether the player is currently in a queue.
func (m *Matchmaker) IsWaiting(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, queue := range m.queues {
		for _, entry := range queue {
			if entry.PlayerID == playerID {
				return true
			}
		}
	}
	return false
}

// QueueStatus returns the number of players waiting per topic.
func (m *Matchmaker) QueueStatus() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := make(map[string]int, len(m.queues))
	for topic, queue := range m.queues {
		status[topic] = len(queue)
	}
	return status
}

func (m *Matchmaker) removeLocked(playerID string) bool {
	for topic, queue := range m.queues {
		for i, entry := range queue {
			if entry.PlayerID == playerID {
				m.queues[topic] = append(queue[:i], queue[i+1:]...)
				return true
			}
		}
	}
	return false
}
