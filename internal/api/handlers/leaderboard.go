package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codearena/backend/internal/store"
)

const maxLeaderboardSize = 100

// GetLeaderboard returns the top-rated players.
func GetLeaderboard(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxLeaderboardSize {
				limit = n
			}
		}

		players, err := st.TopRatings(c.Request.Context(), limit)
		if err != nil {
			log.Printf("[API] Failed to load leaderboard: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"players": players})
	}
}
