package game

import (
	"context"
	"testing"
	"time"
)

func TestBothReadyStartsQuestionLoop(t *testing.T) {
	sm, mm, _, _, hub := newTestGame(defaultSettings(), testQuestions(10), nil)

	mm.RequestMatch(context.Background(), "Arrays", "alice", "Alice")
	mm.RequestMatch(context.Background(), "Arrays", "bob", "Bob")
	found, _ := hub.last("match_found")
	sessionID := found.Message["session_id"].(string)

	sm.PlayerReady(sessionID, "alice")
	if _, ok := hub.last("new_question"); ok {
		t.Fatal("question broadcast before both players ready")
	}

	sm.PlayerReady(sessionID, "bob")
	e, ok := hub.last("new_question")
	if !ok {
		t.Fatal("no new_question after both ready")
	}
	if e.Message["position"] != 1 {
		t.Errorf("position = %v, want 1", e.Message["position"])
	}
	if e.Message["total"] != 10 {
		t.Errorf("total = %v, want 10", e.Message["total"])
	}

	question := e.Message["question"].(map[string]interface{})
	if _, leaked := question["correct_option"]; leaked {
		t.Error("broadcast question includes the correct answer")
	}
	if len(question["options"].([]string)) != 4 {
		t.Error("broadcast question missing options")
	}
}

func TestSubmitAnswerScoresAndIsIdempotent(t *testing.T) {
	sm, mm, store, _, hub := newTestGame(defaultSettings(), testQuestions(10), nil)
	sessionID := startSession(sm, mm, hub)

	// Question 0's correct option is 0
	sm.SubmitAnswer(sessionID, "alice", 0)
	sm.SubmitAnswer(sessionID, "alice", 0) // duplicate, ignored

	updates := hub.ofType("score_update")
	if len(updates) != 1 {
		t.Fatalf("got %d score_update events, want 1", len(updates))
	}

	players := updates[0].Message["players"].([]map[string]interface{})
	if players[0]["id"] != "alice" || players[0]["score"] != 10 {
		t.Errorf("alice score = %v, want 10", players[0]["score"])
	}
	if players[0]["has_answered"] != true {
		t.Error("alice not marked as answered")
	}
	if players[1]["score"] != 0 {
		t.Errorf("bob score = %v, want 0", players[1]["score"])
	}

	// Exactly one persisted increment despite the duplicate
	deadline := time.Now().Add(time.Second)
	for {
		store.mu.Lock()
		calls := store.scoreCalls[sessionID]["alice"]
		store.mu.Unlock()
		if calls == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("persisted increments = %d, want 1", calls)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestWrongAnswerBroadcastsWithoutScoring(t *testing.T) {
	sm, mm, _, _, hub := newTestGame(defaultSettings(), testQuestions(10), nil)
	sessionID := startSession(sm, mm, hub)

	sm.SubmitAnswer(sessionID, "bob", 3) // question 0's correct option is 0

	e, ok := hub.last("score_update")
	if !ok {
		t.Fatal("no score_update after wrong answer")
	}
	players := e.Message["players"].([]map[string]interface{})
	if players[1]["score"] != 0 {
		t.Errorf("bob score = %v, want 0", players[1]["score"])
	}
	if players[1]["has_answered"] != true {
		t.Error("bob not marked as answered after wrong answer")
	}
}

func TestForfeitAwardsWinToOpponent(t *testing.T) {
	ratings := map[string]int{"alice": 1200, "bob": 1200}
	sm, mm, store, ratingStore, hub := newTestGame(defaultSettings(), testQuestions(10), ratings)
	sessionID := startSession(sm, mm, hub)

	// alice leads on points but forfeits; bob wins regardless of score
	sm.SubmitAnswer(sessionID, "alice", 0)
	sm.Forfeit(sessionID, "alice")

	e, ok := hub.last("game_over")
	if !ok {
		t.Fatal("no game_over after forfeit")
	}
	if e.Message["winner_id"] != "bob" {
		t.Errorf("winner = %v, want bob", e.Message["winner_id"])
	}
	if e.Message["reason"] != ReasonForfeit {
		t.Errorf("reason = %v, want %s", e.Message["reason"], ReasonForfeit)
	}

	if winner, ok := store.winner(sessionID); !ok || winner != "bob" {
		t.Errorf("persisted winner = %q, want bob", winner)
	}

	if got := ratingStore.rating("bob"); got != 1216 {
		t.Errorf("winner rating = %d, want 1216", got)
	}
	if got := ratingStore.rating("alice"); got != 1184 {
		t.Errorf("loser rating = %d, want 1184", got)
	}

	if sm.ActiveSessionCount() != 0 {
		t.Error("session state not discarded after forfeit")
	}
}

func TestDisconnectEndsSessionWithRemainingWinner(t *testing.T) {
	ratings := map[string]int{"alice": 1200, "bob": 1200}
	sm, mm, _, _, hub := newTestGame(defaultSettings(), testQuestions(10), ratings)
	sessionID := startSession(sm, mm, hub)

	sm.HandleDisconnect("bob")

	e, ok := hub.last("game_over")
	if !ok {
		t.Fatal("no game_over after disconnect")
	}
	if e.Message["winner_id"] != "alice" {
		t.Errorf("winner = %v, want alice", e.Message["winner_id"])
	}
	if e.Message["reason"] != ReasonDisconnect {
		t.Errorf("reason = %v, want %s", e.Message["reason"], ReasonDisconnect)
	}
	if e.Message["session_id"] != sessionID {
		t.Errorf("game_over for session %v, want %s", e.Message["session_id"], sessionID)
	}

	// A disconnect for a player with no session is a no-op
	sm.HandleDisconnect("ghost")
}

func TestLateEventsAfterGameOverAreIgnored(t *testing.T) {
	sm, mm, _, _, hub := newTestGame(defaultSettings(), testQuestions(10), nil)
	sessionID := startSession(sm, mm, hub)

	sm.Forfeit(sessionID, "alice")

	before := len(hub.ofType("score_update"))
	sm.SubmitAnswer(sessionID, "bob", 0)
	sm.PlayerReady(sessionID, "bob")
	sm.Forfeit(sessionID, "bob")
	after := len(hub.ofType("score_update"))

	if before != after {
		t.Error("stale events mutated a completed session")
	}
	if got := len(hub.ofType("game_over")); got != 1 {
		t.Errorf("got %d game_over events, want 1", got)
	}
}

func TestTimerLoopRunsToCompletionAsDraw(t *testing.T) {
	settings := Settings{
		QuestionsPerMatch: 3,
		QuestionTime:      20 * time.Millisecond,
		RevealDelay:       10 * time.Millisecond,
		PointsPerCorrect:  10,
	}
	ratings := map[string]int{"alice": 1200, "bob": 1200}
	sm, mm, _, ratingStore, hub := newTestGame(settings, testQuestions(3), ratings)
	sessionID := startSession(sm, mm, hub)

	e, ok := hub.waitFor("game_over", 2*time.Second)
	if !ok {
		t.Fatal("question loop never finished")
	}

	if e.Message["reason"] != ReasonCompleted {
		t.Errorf("reason = %v, want %s", e.Message["reason"], ReasonCompleted)
	}
	if e.Message["winner_id"] != nil {
		t.Errorf("winner = %v, want draw (nil)", e.Message["winner_id"])
	}
	if e.Message["session_id"] != sessionID {
		t.Errorf("game_over for session %v, want %s", e.Message["session_id"], sessionID)
	}

	scores := e.Message["scores"].([]map[string]interface{})
	for _, p := range scores {
		if p["score"] != 0 {
			t.Errorf("player %v score = %v, want 0", p["id"], p["score"])
		}
	}

	// One cycle per question, each broadcast exactly once
	if got := len(hub.ofType("new_question")); got != 3 {
		t.Errorf("got %d new_question events, want 3", got)
	}
	if got := len(hub.ofType("times_up")); got != 3 {
		t.Errorf("got %d times_up events, want 3", got)
	}

	// Draw between equals leaves ratings unchanged
	if got := ratingStore.rating("alice"); got != 1200 {
		t.Errorf("alice rating = %d, want 1200", got)
	}
	if sm.ActiveSessionCount() != 0 {
		t.Error("session state not discarded after completion")
	}
}

func TestHigherScoreWinsOnCompletion(t *testing.T) {
	settings := Settings{
		QuestionsPerMatch: 1,
		QuestionTime:      20 * time.Millisecond,
		RevealDelay:       5 * time.Millisecond,
		PointsPerCorrect:  10,
	}
	ratings := map[string]int{"alice": 1200, "bob": 1200}
	sm, mm, _, _, hub := newTestGame(settings, testQuestions(1), ratings)
	sessionID := startSession(sm, mm, hub)

	sm.SubmitAnswer(sessionID, "alice", 0)

	e, ok := hub.waitFor("game_over", 2*time.Second)
	if !ok {
		t.Fatal("game never completed")
	}
	if e.Message["winner_id"] != "alice" {
		t.Errorf("winner = %v, want alice", e.Message["winner_id"])
	}
	if e.Message["reason"] != ReasonCompleted {
		t.Errorf("reason = %v, want %s", e.Message["reason"], ReasonCompleted)
	}
}

func TestReadyTimeoutCancelsSession(t *testing.T) {
	settings := defaultSettings()
	settings.ReadyTimeout = 20 * time.Millisecond
	ratings := map[string]int{"alice": 1200, "bob": 1200}
	sm, mm, _, ratingStore, hub := newTestGame(settings, testQuestions(10), ratings)

	mm.RequestMatch(context.Background(), "Arrays", "alice", "Alice")
	mm.RequestMatch(context.Background(), "Arrays", "bob", "Bob")
	found, _ := hub.last("match_found")
	sessionID := found.Message["session_id"].(string)

	// Only one player ever signals ready
	sm.PlayerReady(sessionID, "alice")

	e, ok := hub.waitFor("game_over", 2*time.Second)
	if !ok {
		t.Fatal("ready timeout never fired")
	}
	if e.Message["reason"] != ReasonReadyTimeout {
		t.Errorf("reason = %v, want %s", e.Message["reason"], ReasonReadyTimeout)
	}
	if e.Message["winner_id"] != nil {
		t.Errorf("winner = %v, want nil", e.Message["winner_id"])
	}

	// A match that never started must not touch ratings
	if ratingStore.setCount() != 0 {
		t.Errorf("ratings written %d times after ready timeout, want 0", ratingStore.setCount())
	}
}

func TestEndingOlderSessionKeepsNewerDisconnectTracking(t *testing.T) {
	sm, _, _, _, hub := newTestGame(defaultSettings(), testQuestions(10), nil)

	alice := PlayerInfo{ID: "alice", Username: "Alice"}
	bob := PlayerInfo{ID: "bob", Username: "Bob"}
	carol := PlayerInfo{ID: "carol", Username: "Carol"}

	first, _ := sm.CreateSession(context.Background(), "Arrays", alice, bob)
	second, _ := sm.CreateSession(context.Background(), "Arrays", alice, carol)

	// Ending the older session must not clear alice's link to the newer one
	sm.Forfeit(first, "bob")

	sm.HandleDisconnect("alice")
	e, ok := hub.last("game_over")
	if !ok {
		t.Fatal("no game_over after disconnect")
	}
	if e.Message["session_id"] != second {
		t.Errorf("game_over for session %v, want %s", e.Message["session_id"], second)
	}
	if e.Message["winner_id"] != "carol" {
		t.Errorf("winner = %v, want carol", e.Message["winner_id"])
	}
	if sm.ActiveSessionCount() != 0 {
		t.Error("sessions left behind after both ended")
	}
}

func TestSessionAlwaysHoldsTwoPlayers(t *testing.T) {
	sm, mm, _, _, hub := newTestGame(defaultSettings(), testQuestions(10), nil)
	startSession(sm, mm, hub)

	found, _ := hub.last("match_found")
	players := found.Message["players"].([]PlayerInfo)
	if len(players) != 2 {
		t.Fatalf("session created with %d players, want 2", len(players))
	}

	e, _ := hub.last("new_question")
	if e.Room == "" {
		t.Error("new_question not broadcast to the session room")
	}
}
