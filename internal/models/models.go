package models

import (
	"database/sql"
	"time"
)

// Player represents a registered user
type Player struct {
	ID               string       `db:"id" json:"id"`
	Username         string       `db:"username" json:"username"`
	PasswordHash     string       `db:"password_hash" json:"-"`
	Rating           int          `db:"rating" json:"rating"`
	TotalGamesPlayed int          `db:"total_games_played" json:"total_games_played"`
	TotalGamesWon    int          `db:"total_games_won" json:"total_games_won"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	LastActive       sql.NullTime `db:"last_active" json:"last_active,omitempty"`
}

// Topic represents a quiz category
type Topic struct {
	ID            int    `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	QuestionCount int    `db:"question_count" json:"question_count"`
}

// Question represents one multiple-choice question
type Question struct {
	ID            int    `db:"id" json:"id"`
	Topic         string `db:"topic" json:"topic"`
	Text          string `db:"text" json:"text"`
	OptionA       string `db:"option_a" json:"option_a"`
	OptionB       string `db:"option_b" json:"option_b"`
	OptionC       string `db:"option_c" json:"option_c"`
	OptionD       string `db:"option_d" json:"option_d"`
	CorrectOption int    `db:"correct_option" json:"correct_option"` // 0..3
}

// Options returns the four answer options in order.
func (q Question) Options() []string {
	return []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// QuizSession represents a 1v1 match between two players
type QuizSession struct {
	ID          string         `db:"id" json:"id"`
	Topic       string         `db:"topic" json:"topic"`
	Status      string         `db:"status" json:"status"`
	WinnerID    sql.NullString `db:"winner_id" json:"winner_id,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	CompletedAt sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
}

// QuizParticipant represents a player's row within a session
type QuizParticipant struct {
	ID        int    `db:"id" json:"id"`
	SessionID string `db:"session_id" json:"session_id"`
	PlayerID  string `db:"player_id" json:"player_id"`
	Score     int    `db:"score" json:"score"`
}

// RatingHistory records a rating change from one match
type RatingHistory struct {
	ID           int       `db:"id" json:"id"`
	PlayerID     string    `db:"player_id" json:"player_id"`
	SessionID    string    `db:"session_id" json:"session_id"`
	RatingBefore int       `db:"rating_before" json:"rating_before"`
	RatingAfter  int       `db:"rating_after" json:"rating_after"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
