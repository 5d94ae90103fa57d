package game

import (
	"context"

	"github.com/codearena/backend/internal/models"
)

// QuestionBank supplies quiz topics and random question sets.
type QuestionBank interface {
	ListTopics(ctx context.Context) ([]string, error)
	SampleQuestions(ctx context.Context, topic string, count int) ([]models.Question, error)
}

// SessionStore is the durable record of sessions and participant scores.
// Writes are milestones (create, score increment, completion); the in-memory
// session state is never rebuilt from it mid-game.
type SessionStore interface {
	// CreateSession returns a usable session id even when the insert fails;
	// callers log the error and keep playing.
	CreateSession(ctx context.Context, topic string) (string, error)
	AddParticipants(ctx context.Context, sessionID string, playerIDs []string) error
	IncrementScore(ctx context.Context, sessionID, playerID string, delta int) error
	// CompleteSession marks the session finished. An empty winnerID means a draw.
	CompleteSession(ctx context.Context, sessionID, winnerID string) error
}

// RatingStore reads and writes player ELO ratings.
type RatingStore interface {
	GetRatings(ctx context.Context, playerIDs []string) (map[string]int, error)
	SetRating(ctx context.Context, playerID string, rating int) error
	RecordRatingChange(ctx context.Context, playerID, sessionID string, before, after int) error
}

// Broadcaster is the realtime transport: room-based publish plus direct
// per-player delivery. Implemented by the websocket hub.
type Broadcaster interface {
	JoinRoom(playerID, room string)
	LeaveRoom(playerID, room string)
	ToRoom(room string, message interface{})
	ToPlayer(playerID string, message interface{})
}
