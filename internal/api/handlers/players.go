package handlers

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/codearena/backend/internal/models"
	"github.com/codearena/backend/internal/store"
)

// playerIDParam validates the :id path param. A malformed id is a plain 404;
// postgres would otherwise reject it with a uuid syntax error.
func playerIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return "", false
	}
	return id, true
}

// GetPlayerStats returns a player's rating and game counters.
func GetPlayerStats(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := playerIDParam(c)
		if !ok {
			return
		}
		var player models.Player
		err := db.Get(&player, `
			SELECT id, username, rating, total_games_played, total_games_won, created_at
			FROM players WHERE id = $1
		`, playerID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if err != nil {
			log.Printf("[API] Failed to load player %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"player": player})
	}
}

// GetPlayerMatches returns the player's recent completed matches.
func GetPlayerMatches(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := playerIDParam(c)
		if !ok {
			return
		}
		matches, err := st.RecentMatches(c.Request.Context(), playerID, 20)
		if err != nil {
			log.Printf("[API] Failed to load matches for %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}
