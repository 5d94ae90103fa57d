package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codearena/backend/internal/models"
)

// fakeBank serves a fixed question list for every topic.
type fakeBank struct {
	questions []models.Question
	fail      bool
}

func (b *fakeBank) ListTopics(ctx context.Context) ([]string, error) {
	return []string{"Arrays"}, nil
}

func (b *fakeBank) SampleQuestions(ctx context.Context, topic string, count int) ([]models.Question, error) {
	if b.fail {
		return nil, errors.New("bank unavailable")
	}
	if count > len(b.questions) {
		count = len(b.questions)
	}
	return b.questions[:count], nil
}

// fakeStore records session writes in memory.
type fakeStore struct {
	mu           sync.Mutex
	nextID       int
	participants map[string][]string
	scoreCalls   map[string]map[string]int // sessionID -> playerID -> increment count
	completed    map[string]string         // sessionID -> winnerID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		participants: make(map[string][]string),
		scoreCalls:   make(map[string]map[string]int),
		completed:    make(map[string]string),
	}
}

func (s *fakeStore) CreateSession(ctx context.Context, topic string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("session-%d", s.nextID), nil
}

func (s *fakeStore) AddParticipants(ctx context.Context, sessionID string, playerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[sessionID] = append([]string{}, playerIDs...)
	return nil
}

func (s *fakeStore) IncrementScore(ctx context.Context, sessionID, playerID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scoreCalls[sessionID] == nil {
		s.scoreCalls[sessionID] = make(map[string]int)
	}
	s.scoreCalls[sessionID][playerID]++
	return nil
}

func (s *fakeStore) CompleteSession(ctx context.Context, sessionID, winnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[sessionID] = winnerID
	return nil
}

func (s *fakeStore) winner(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.completed[sessionID]
	return w, ok
}

// fakeRatings is an in-memory rating store.
type fakeRatings struct {
	mu      sync.Mutex
	ratings map[string]int
	sets    int
}

func newFakeRatings(initial map[string]int) *fakeRatings {
	r := &fakeRatings{ratings: make(map[string]int)}
	for id, rating := range initial {
		r.ratings[id] = rating
	}
	return r
}

func (r *fakeRatings) GetRatings(ctx context.Context, playerIDs []string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(playerIDs))
	for _, id := range playerIDs {
		out[id] = r.ratings[id]
	}
	return out, nil
}

func (r *fakeRatings) SetRating(ctx context.Context, playerID string, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings[playerID] = rating
	r.sets++
	return nil
}

func (r *fakeRatings) RecordRatingChange(ctx context.Context, playerID, sessionID string, before, after int) error {
	return nil
}

func (r *fakeRatings) rating(playerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ratings[playerID]
}

func (r *fakeRatings) setCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

// fakeHub records every broadcast instead of delivering it.
type hubEvent struct {
	Room    string // empty for direct sends
	Player  string // empty for room broadcasts
	Message map[string]interface{}
}

type fakeHub struct {
	mu     sync.Mutex
	events []hubEvent
}

func newFakeHub() *fakeHub { return &fakeHub{} }

func (h *fakeHub) JoinRoom(playerID, room string)  {}
func (h *fakeHub) LeaveRoom(playerID, room string) {}

func (h *fakeHub) ToRoom(room string, message interface{}) {
	h.record(hubEvent{Room: room, Message: message.(map[string]interface{})})
}

func (h *fakeHub) ToPlayer(playerID string, message interface{}) {
	h.record(hubEvent{Player: playerID, Message: message.(map[string]interface{})})
}

func (h *fakeHub) record(e hubEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *fakeHub) ofType(eventType string) []hubEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []hubEvent
	for _, e := range h.events {
		if e.Message["type"] == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (h *fakeHub) last(eventType string) (hubEvent, bool) {
	matches := h.ofType(eventType)
	if len(matches) == 0 {
		return hubEvent{}, false
	}
	return matches[len(matches)-1], true
}

// waitFor polls until an event of the given type shows up or the deadline hits.
func (h *fakeHub) waitFor(eventType string, timeout time.Duration) (hubEvent, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e, ok := h.last(eventType); ok {
			return e, true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return hubEvent{}, false
}

func testQuestions(n int) []models.Question {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			ID:            i + 1,
			Topic:         "Arrays",
			Text:          fmt.Sprintf("Question %d", i+1),
			OptionA:       "a",
			OptionB:       "b",
			OptionC:       "c",
			OptionD:       "d",
			CorrectOption: i % 4,
		}
	}
	return questions
}

func defaultSettings() Settings {
	return Settings{
		QuestionsPerMatch: 10,
		QuestionTime:      time.Minute, // long enough that tests drive transitions
		RevealDelay:       time.Minute,
		ReadyTimeout:      0,
		PointsPerCorrect:  10,
	}
}

// newTestGame wires a session manager and matchmaker against fakes.
func newTestGame(settings Settings, questions []models.Question, ratings map[string]int) (*SessionManager, *Matchmaker, *fakeStore, *fakeRatings, *fakeHub) {
	store := newFakeStore()
	ratingStore := newFakeRatings(ratings)
	hub := newFakeHub()
	bank := &fakeBank{questions: questions}
	sessions := NewSessionManager(bank, store, ratingStore, hub, settings)
	matchmaker := NewMatchmaker(sessions, hub)
	matchmaker.Seed([]string{"Arrays", "Graphs"})
	return sessions, matchmaker, store, ratingStore, hub
}

// startSession pairs two players and readies both, returning the session id.
func startSession(sm *SessionManager, mm *Matchmaker, hub *fakeHub) string {
	mm.RequestMatch(context.Background(), "Arrays", "alice", "Alice")
	mm.RequestMatch(context.Background(), "Arrays", "bob", "Bob")
	found, _ := hub.last("match_found")
	sessionID := found.Message["session_id"].(string)
	sm.PlayerReady(sessionID, "alice")
	sm.PlayerReady(sessionID, "bob")
	return sessionID
}
