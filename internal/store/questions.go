package store

import (
	"context"
	"fmt"

	"github.com/codearena/backend/internal/models"
)

// ListTopics returns every quiz topic, alphabetically.
func (s *Store) ListTopics(ctx context.Context) ([]string, error) {
	var topics []string
	err := s.db.SelectContext(ctx, &topics, `SELECT name FROM topics ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// ListTopicsWithCounts returns topics with their question counts, for the
// REST surface.
func (s *Store) ListTopicsWithCounts(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	err := s.db.SelectContext(ctx, &topics, `
		SELECT t.id, t.name, COUNT(q.id) AS question_count
		FROM topics t
		LEFT JOIN questions q ON q.topic = t.name
		GROUP BY t.id, t.name
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list topics with counts: %w", err)
	}
	return topics, nil
}

// SampleQuestions returns up to count random questions for the topic,
// without repeats within one call.
func (s *Store) SampleQuestions(ctx context.Context, topic string, count int) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.SelectContext(ctx, &questions, `
		SELECT id, topic, text, option_a, option_b, option_c, option_d, correct_option
		FROM questions
		WHERE topic = $1
		ORDER BY random()
		LIMIT $2
	`, topic, count)
	if err != nil {
		return nil, fmt.Errorf("sample questions for topic %q: %w", topic, err)
	}
	return questions, nil
}
