package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/codearena/backend/internal/config"
	"github.com/codearena/backend/internal/database"
)

type seedQuestion struct {
	Topic         string `json:"topic"`
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption int    `json:"correct_option"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	path := "seed/questions.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read seed file %s: %v", path, err)
	}

	var questions []seedQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

	inserted := 0
	for _, q := range questions {
		if q.CorrectOption < 0 || q.CorrectOption > 3 {
			log.Printf("Skipping question with invalid correct_option: %q", q.Text)
			continue
		}

		// Topics are created on demand so seed files can introduce new ones
		if _, err := db.Exec(`INSERT INTO topics (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, q.Topic); err != nil {
			log.Fatalf("Failed to upsert topic %s: %v", q.Topic, err)
		}

		var exists bool
		err := db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM questions WHERE topic = $1 AND text = $2)`, q.Topic, q.Text)
		if err != nil {
			log.Fatalf("Failed to check for existing question: %v", err)
		}
		if exists {
			continue
		}

		_, err = db.Exec(`
			INSERT INTO questions (topic, text, option_a, option_b, option_c, option_d, correct_option)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			q.Topic, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption)
		if err != nil {
			log.Fatalf("Failed to insert question %q: %v", q.Text, err)
		}
		inserted++
	}

	log.Printf("✓ Seeded %d new questions (%d in file)", inserted, len(questions))
}
