package store

import (
	"context"
	"fmt"
	"log"

	"github.com/codearena/backend/internal/models"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// GetRatings returns the current rating of each given player.
func (s *Store) GetRatings(ctx context.Context, playerIDs []string) (map[string]int, error) {
	var rows []struct {
		ID     string `db:"id"`
		Rating int    `db:"rating"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, rating FROM players WHERE id = ANY($1)
	`, pq.Array(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("get ratings: %w", err)
	}

	ratings := make(map[string]int, len(rows))
	for _, row := range rows {
		ratings[row.ID] = row.Rating
	}
	return ratings, nil
}

// SetRating writes the player's new rating and mirrors it into the redis
// leaderboard. The mirror is best-effort.
func (s *Store) SetRating(ctx context.Context, playerID string, rating int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE players SET rating = $1 WHERE id = $2
	`, rating, playerID)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}

	if s.rdb != nil {
		if err := s.rdb.ZAdd(ctx, LeaderboardKey, redis.Z{
			Score:  float64(rating),
			Member: playerID,
		}).Err(); err != nil {
			log.Printf("[DB] Failed to mirror rating to leaderboard for %s: %v", playerID, err)
		}
	}
	return nil
}

// RecordRatingChange appends one rating_history row for the match.
func (s *Store) RecordRatingChange(ctx context.Context, playerID, sessionID string, before, after int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rating_history (player_id, session_id, rating_before, rating_after, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, playerID, sessionID, before, after)
	if err != nil {
		return fmt.Errorf("record rating change: %w", err)
	}
	return nil
}

// TopRatings reads the top-n leaderboard from redis, falling back to the DB
// when redis is empty or unavailable.
func (s *Store) TopRatings(ctx context.Context, n int) ([]models.Player, error) {
	if s.rdb != nil {
		entries, err := s.rdb.ZRevRangeWithScores(ctx, LeaderboardKey, 0, int64(n-1)).Result()
		if err != nil {
			log.Printf("[DB] Leaderboard read from redis failed, falling back to DB: %v", err)
		} else if len(entries) > 0 {
			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				if id, ok := e.Member.(string); ok {
					ids = append(ids, id)
				}
			}
			players, err := s.playersByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			// Preserve redis rank order
			byID := make(map[string]models.Player, len(players))
			for _, p := range players {
				byID[p.ID] = p
			}
			ordered := make([]models.Player, 0, len(ids))
			for _, id := range ids {
				if p, ok := byID[id]; ok {
					ordered = append(ordered, p)
				}
			}
			return ordered, nil
		}
	}

	var players []models.Player
	err := s.db.SelectContext(ctx, &players, `
		SELECT id, username, rating, total_games_played, total_games_won, created_at
		FROM players
		ORDER BY rating DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("top ratings: %w", err)
	}
	return players, nil
}

func (s *Store) playersByIDs(ctx context.Context, ids []string) ([]models.Player, error) {
	var players []models.Player
	err := s.db.SelectContext(ctx, &players, `
		SELECT id, username, rating, total_games_played, total_games_won, created_at
		FROM players WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("players by ids: %w", err)
	}
	return players, nil
}
