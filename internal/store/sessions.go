package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/codearena/backend/internal/models"
	"github.com/google/uuid"
)

// Session statuses as stored in quiz_sessions.status
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

// CreateSession inserts a new in-progress session row. The returned id is
// always valid, even when the insert fails; gameplay does not depend on the
// durable record.
func (s *Store) CreateSession(ctx context.Context, topic string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_sessions (id, topic, status, created_at)
		VALUES ($1, $2, $3, NOW())
	`, id, topic, SessionInProgress)
	if err != nil {
		return id, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// AddParticipants creates one participant row per player with a zero score.
func (s *Store) AddParticipants(ctx context.Context, sessionID string, playerIDs []string) error {
	for _, playerID := range playerIDs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO quiz_participants (session_id, player_id, score)
			VALUES ($1, $2, 0)
		`, sessionID, playerID)
		if err != nil {
			return fmt.Errorf("add participant %s: %w", playerID, err)
		}
	}
	return nil
}

// IncrementScore adds delta to the participant's persisted score.
func (s *Store) IncrementScore(ctx context.Context, sessionID, playerID string, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE quiz_participants
		SET score = score + $1
		WHERE session_id = $2 AND player_id = $3
	`, delta, sessionID, playerID)
	if err != nil {
		return fmt.Errorf("increment score: %w", err)
	}
	return nil
}

// CompleteSession marks the session completed, bumps player game counters and
// publishes a match_completed event. An empty winnerID records a draw.
func (s *Store) CompleteSession(ctx context.Context, sessionID, winnerID string) error {
	winner := sql.NullString{String: winnerID, Valid: winnerID != ""}
	_, err := s.db.ExecContext(ctx, `
		UPDATE quiz_sessions
		SET status = $1, winner_id = $2, completed_at = NOW()
		WHERE id = $3
	`, SessionCompleted, winner, sessionID)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE players
		SET total_games_played = total_games_played + 1
		WHERE id IN (SELECT player_id FROM quiz_participants WHERE session_id = $1)
	`, sessionID); err != nil {
		log.Printf("[DB] Failed to bump games played for session %s: %v", sessionID, err)
	}
	if winner.Valid {
		if _, err := s.db.ExecContext(ctx, `
			UPDATE players SET total_games_won = total_games_won + 1 WHERE id = $1
		`, winnerID); err != nil {
			log.Printf("[DB] Failed to bump games won for player %s: %v", winnerID, err)
		}
	}

	s.publishMatchCompleted(ctx, sessionID, winnerID)
	return nil
}

// RecentMatches returns the player's most recent completed sessions.
func (s *Store) RecentMatches(ctx context.Context, playerID string, limit int) ([]models.QuizSession, error) {
	var sessions []models.QuizSession
	err := s.db.SelectContext(ctx, &sessions, `
		SELECT qs.id, qs.topic, qs.status, qs.winner_id, qs.created_at, qs.completed_at
		FROM quiz_sessions qs
		JOIN quiz_participants qp ON qp.session_id = qs.id
		WHERE qp.player_id = $1 AND qs.status = $2
		ORDER BY qs.completed_at DESC
		LIMIT $3
	`, playerID, SessionCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("recent matches: %w", err)
	}
	return sessions, nil
}

// publishMatchCompleted is best-effort; clients on other nodes pick the event
// up through the websocket relay.
func (s *Store) publishMatchCompleted(ctx context.Context, sessionID, winnerID string) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":       "match_completed",
		"session_id": sessionID,
		"winner_id":  winnerID,
	})
	if err != nil {
		log.Printf("[DB] Failed to marshal match_completed for session %s: %v", sessionID, err)
		return
	}
	if err := s.rdb.Publish(ctx, MatchEventsChannel, payload).Err(); err != nil {
		log.Printf("[DB] Failed to publish match_completed for session %s: %v", sessionID, err)
	}
}
