package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codearena/backend/internal/store"
)

// ListTopics returns the quiz topics with question counts.
func ListTopics(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		topics, err := st.ListTopicsWithCounts(c.Request.Context())
		if err != nil {
			log.Printf("[API] Failed to list topics: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"topics": topics})
	}
}
