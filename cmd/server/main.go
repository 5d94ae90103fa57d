package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/codearena/backend/internal/api"
	"github.com/codearena/backend/internal/config"
	"github.com/codearena/backend/internal/database"
	"github.com/codearena/backend/internal/game"
	"github.com/codearena/backend/internal/migrations"
	"github.com/codearena/backend/internal/redis"
	"github.com/codearena/backend/internal/store"
	"github.com/codearena/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	st := store.New(db, rdb)

	// Websocket hub, session manager and matchmaker reference each other:
	// the hub dispatches inbound events to the game, the game broadcasts
	// through the hub.
	hub := ws.NewHub()
	sessions := game.NewSessionManager(st, st, st, hub, game.Settings{
		QuestionsPerMatch: cfg.QuestionsPerMatch,
		QuestionTime:      time.Duration(cfg.QuestionSeconds) * time.Second,
		RevealDelay:       time.Duration(cfg.RevealSeconds) * time.Second,
		ReadyTimeout:      time.Duration(cfg.ReadyTimeoutSeconds) * time.Second,
		PointsPerCorrect:  cfg.PointsPerCorrect,
	})
	matchmaker := game.NewMatchmaker(sessions, hub)
	hub.SetGame(matchmaker, sessions)
	go hub.Run()

	// Seed the per-topic matchmaking queues before accepting connections;
	// match requests for unseeded topics are rejected.
	topics, err := st.ListTopics(context.Background())
	if err != nil {
		log.Fatalf("Failed to load topics for matchmaking: %v", err)
	}
	matchmaker.Seed(topics)

	// Relay match events published by other nodes
	ws.StartMatchEventSubscriber(context.Background(), rdb, hub)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, db, st, hub, matchmaker, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting CodeArena server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
