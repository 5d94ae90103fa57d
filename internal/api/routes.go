package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/codearena/backend/internal/api/handlers"
	"github.com/codearena/backend/internal/config"
	"github.com/codearena/backend/internal/game"
	"github.com/codearena/backend/internal/middleware"
	"github.com/codearena/backend/internal/store"
	"github.com/codearena/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, st *store.Store, hub *ws.Hub, mm *game.Matchmaker, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db, cfg))
			auth.POST("/login", handlers.Login(db, cfg))
		}

		v1.GET("/topics", handlers.ListTopics(st))
		v1.GET("/leaderboard", handlers.GetLeaderboard(st))

		player := v1.Group("/players")
		player.Use(middleware.AuthRequired(cfg))
		{
			player.GET("/:id/stats", handlers.GetPlayerStats(db))
			player.GET("/:id/matches", handlers.GetPlayerMatches(st))
		}

		v1.GET("/queue/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"queues": mm.QueueStatus()})
		})

		v1.GET("/ws", ws.HandleWebSocket(hub, cfg))
	}
}
