package store

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// MatchEventsChannel is the redis pub/sub channel match lifecycle events are
// published on. The websocket layer relays these to connected clients.
const MatchEventsChannel = "match_events"

// LeaderboardKey is the redis sorted set mirroring player ratings.
const LeaderboardKey = "leaderboard:rating"

// Store implements the game collaborator interfaces (question bank, session
// store, rating store) on postgres, with a redis leaderboard mirror and
// match event publishing.
type Store struct {
	db  *sqlx.DB
	rdb *redis.Client
}

// New creates a store. rdb may be nil; redis side effects are then skipped.
func New(db *sqlx.DB, rdb *redis.Client) *Store {
	return &Store{db: db, rdb: rdb}
}
