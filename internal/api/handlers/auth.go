package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/codearena/backend/internal/auth"
	"github.com/codearena/backend/internal/config"
	"github.com/codearena/backend/internal/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a player account and returns an access token.
func Register(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentials
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if len(req.Username) < 3 || len(req.Username) > 32 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-32 characters"})
			return
		}
		if len(req.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[AUTH] bcrypt error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		var playerID string
		err = db.QueryRowx(`
			INSERT INTO players (username, password_hash, rating)
			VALUES ($1, $2, $3)
			RETURNING id
		`, req.Username, string(hash), cfg.DefaultRating).Scan(&playerID)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
				c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
				return
			}
			log.Printf("[AUTH] Failed to create player: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		token, err := auth.GenerateToken(cfg.JWTSecret, playerID, req.Username,
			time.Duration(cfg.TokenExpiryHours)*time.Hour)
		if err != nil {
			log.Printf("[AUTH] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"player": gin.H{
				"id":       playerID,
				"username": req.Username,
				"rating":   cfg.DefaultRating,
			},
		})
	}
}

// Login verifies credentials and returns an access token.
func Login(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentials
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		var player models.Player
		err := db.Get(&player, `
			SELECT id, username, password_hash, rating, total_games_played, total_games_won, created_at
			FROM players WHERE username = $1
		`, strings.TrimSpace(req.Username))
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err != nil {
			log.Printf("[AUTH] Failed to load player: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if _, err := db.Exec(`UPDATE players SET last_active = NOW() WHERE id = $1`, player.ID); err != nil {
			log.Printf("[AUTH] Failed to update last_active for %s: %v", player.ID, err)
		}

		token, err := auth.GenerateToken(cfg.JWTSecret, player.ID, player.Username,
			time.Duration(cfg.TokenExpiryHours)*time.Hour)
		if err != nil {
			log.Printf("[AUTH] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":  token,
			"player": player,
		})
	}
}
