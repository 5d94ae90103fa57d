package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/codearena/backend/internal/models"
)

// SessionStatus represents the current state of a match session
type SessionStatus string

const (
	StatusAwaitingReady SessionStatus = "AWAITING_READY"
	StatusInProgress    SessionStatus = "IN_PROGRESS"
	StatusCompleted     SessionStatus = "COMPLETED"
)

// Reasons a session ends
const (
	ReasonCompleted    = "completed"
	ReasonForfeit      = "forfeit"
	ReasonDisconnect   = "disconnect"
	ReasonReadyTimeout = "ready_timeout"
	ReasonError        = "error"
)

// PlayerInfo identifies one participant of a session
type PlayerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// playerState is the transient per-player runtime state, reset every question
type playerState struct {
	Info        PlayerInfo
	Score       int
	HasAnswered bool
	Ready       bool
}

// matchSession is the in-memory state of one 1v1 quiz match. It exists only
// while the session is live; the DB row is the durable record, never read
// back mid-game.
type matchSession struct {
	ID        string
	Topic     string
	Room      string
	Status    SessionStatus
	players   map[string]*playerState
	order     [2]string // player ids in pairing order
	questions []models.Question
	current   int
	timer     *time.Timer // pending question/reveal/ready timer, nil when idle
}

func (s *matchSession) opponentOf(playerID string) string {
	if s.order[0] == playerID {
		return s.order[1]
	}
	return s.order[0]
}

// Settings are the tunable match parameters.
type Settings struct {
	QuestionsPerMatch int
	QuestionTime      time.Duration
	RevealDelay       time.Duration
	ReadyTimeout      time.Duration // 0 disables the ready timeout
	PointsPerCorrect  int
}

// SessionManager owns all live match sessions and drives the timed
// question/answer loop. Every mutation of session state runs under a single
// lock; timer callbacks re-check that the session (and its question index)
// still exist before touching anything, so a stale timer firing after the
// session ended is a no-op.
type SessionManager struct {
	sessions        map[string]*matchSession
	playerToSession map[string]string
	bank            QuestionBank
	store           SessionStore
	ratings         RatingStore
	hub             Broadcaster
	settings        Settings
	mu              sync.Mutex
}

// NewSessionManager creates a session manager with no live sessions.
func NewSessionManager(bank QuestionBank, store SessionStore, ratings RatingStore, hub Broadcaster, settings Settings) *SessionManager {
	return &SessionManager{
		sessions:        make(map[string]*matchSession),
		playerToSession: make(map[string]string),
		bank:            bank,
		store:           store,
		ratings:         ratings,
		hub:             hub,
		settings:        settings,
	}
}

// CreateSession persists a new session, joins both players to its channel and
// announces the match. The session waits for both ready signals before the
// question loop starts.
func (sm *SessionManager) CreateSession(ctx context.Context, topic string, p1, p2 PlayerInfo) (string, error) {
	sessionID, err := sm.store.CreateSession(ctx, topic)
	if err != nil {
		log.Printf("[DB] Failed to create session row: %v", err)
	}
	if err := sm.store.AddParticipants(ctx, sessionID, []string{p1.ID, p2.ID}); err != nil {
		log.Printf("[DB] Failed to add participants for session %s: %v", sessionID, err)
	}

	room := "match:" + sessionID
	session := &matchSession{
		ID:     sessionID,
		Topic:  topic,
		Room:   room,
		Status: StatusAwaitingReady,
		players: map[string]*playerState{
			p1.ID: {Info: p1},
			p2.ID: {Info: p2},
		},
		order: [2]string{p1.ID, p2.ID},
	}

	sm.mu.Lock()
	sm.sessions[sessionID] = session
	sm.playerToSession[p1.ID] = sessionID
	sm.playerToSession[p2.ID] = sessionID
	if sm.settings.ReadyTimeout > 0 {
		session.timer = time.AfterFunc(sm.settings.ReadyTimeout, func() {
			sm.onReadyTimeout(sessionID)
		})
	}
	sm.mu.Unlock()

	sm.hub.JoinRoom(p1.ID, room)
	sm.hub.JoinRoom(p2.ID, room)

	log.Printf("[GAME] Session %s created: %s vs %s (topic=%q)", sessionID, p1.ID, p2.ID, topic)

	sm.hub.ToRoom(room, map[string]interface{}{
		"type":       "match_found",
		"session_id": sessionID,
		"channel":    room,
		"topic":      topic,
		"players":    []PlayerInfo{p1, p2},
	})

	return sessionID, nil
}

// PlayerReady records a ready signal; once both players are ready the
// question loop starts.
func (sm *SessionManager) PlayerReady(sessionID, playerID string) {
	sm.mu.Lock()

	session, ok := sm.sessions[sessionID]
	if !ok || session.Status != StatusAwaitingReady {
		sm.mu.Unlock()
		log.Printf("[GAME] Ignoring ready for session %s from %s (stale)", sessionID, playerID)
		return
	}
	player, ok := session.players[playerID]
	if !ok {
		sm.mu.Unlock()
		log.Printf("[GAME] Ignoring ready from %s: not in session %s", playerID, sessionID)
		return
	}

	player.Ready = true
	for _, p := range session.players {
		if !p.Ready {
			sm.mu.Unlock()
			return
		}
	}

	// Both ready: stop the ready timer and start the question loop
	sm.stopTimerLocked(session)
	session.Status = StatusInProgress
	topic := session.Topic
	sm.mu.Unlock()

	sm.start(sessionID, topic)
}

// start fetches the question set and kicks off the first question. The fetch
// runs outside the lock; the session is re-checked afterwards.
func (sm *SessionManager) start(sessionID, topic string) {
	questions, err := sm.bank.SampleQuestions(context.Background(), topic, sm.settings.QuestionsPerMatch)
	if err != nil || len(questions) == 0 {
		log.Printf("[GAME] Failed to load questions for session %s (topic=%q): %v", sessionID, topic, err)
		sm.mu.Lock()
		if session, ok := sm.sessions[sessionID]; ok {
			sm.endLocked(session, "", ReasonError)
		}
		sm.mu.Unlock()
		return
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[sessionID]
	if !ok || session.Status != StatusInProgress {
		return
	}

	session.questions = questions
	session.current = 0
	for _, p := range session.players {
		p.Score = 0
		p.HasAnswered = false
	}

	log.Printf("[GAME] Session %s started with %d questions", sessionID, len(questions))
	sm.advanceLocked(session)
}

// advanceLocked broadcasts the current question and arms the answer timer,
// or ends the session when the set is exhausted. Caller holds sm.mu.
func (sm *SessionManager) advanceLocked(session *matchSession) {
	if session.current >= len(session.questions) {
		sm.endLocked(session, "", ReasonCompleted)
		return
	}

	for _, p := range session.players {
		p.HasAnswered = false
	}

	q := session.questions[session.current]
	sm.hub.ToRoom(session.Room, map[string]interface{}{
		"type":       "new_question",
		"session_id": session.ID,
		"question": map[string]interface{}{
			"id":      q.ID,
			"text":    q.Text,
			"options": q.Options(),
		},
		"position": session.current + 1,
		"total":    len(session.questions),
	})

	sessionID := session.ID
	index := session.current
	session.timer = time.AfterFunc(sm.settings.QuestionTime, func() {
		sm.onQuestionTimeout(sessionID, index)
	})
}

// onQuestionTimeout reveals the correct answer and schedules the advance to
// the next question after the reveal delay.
func (sm *SessionManager) onQuestionTimeout(sessionID string, index int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[sessionID]
	if !ok || session.Status != StatusInProgress || session.current != index {
		return // session ended or moved on while the timer was in flight
	}

	q := session.questions[index]
	sm.hub.ToRoom(session.Room, map[string]interface{}{
		"type":           "times_up",
		"session_id":     sessionID,
		"question_id":    q.ID,
		"correct_option": q.CorrectOption,
	})

	session.timer = time.AfterFunc(sm.settings.RevealDelay, func() {
		sm.onRevealDone(sessionID, index)
	})
}

// onRevealDone moves to the next question once clients have had time to show
// the correct answer.
func (sm *SessionManager) onRevealDone(sessionID string, index int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[sessionID]
	if !ok || session.Status != StatusInProgress || session.current != index {
		return
	}

	session.current++
	sm.advanceLocked(session)
}

// SubmitAnswer scores an answer for the current question. Stale submissions
// (unknown session or player, or a duplicate for this question) are logged
// and ignored; realtime events can legitimately arrive after a session ends.
func (sm *SessionManager) SubmitAnswer(sessionID, playerID string, option int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[sessionID]
	if !ok || session.Status != StatusInProgress {
		log.Printf("[GAME] Ignoring answer for session %s from %s (stale)", sessionID, playerID)
		return
	}
	player, ok := session.players[playerID]
	if !ok {
		log.Printf("[GAME] Ignoring answer from %s: not in session %s", playerID, sessionID)
		return
	}
	if player.HasAnswered {
		return // duplicate or late submission for this question
	}
	if session.current >= len(session.questions) {
		return // question set not loaded yet or already exhausted
	}

	player.HasAnswered = true

	q := session.questions[session.current]
	if option == q.CorrectOption {
		player.Score += sm.settings.PointsPerCorrect
		delta := sm.settings.PointsPerCorrect

		// Fire-and-forget relative to the in-memory score: a failed write
		// must not block gameplay.
		go func() {
			if err := sm.store.IncrementScore(context.Background(), sessionID, playerID, delta); err != nil {
				log.Printf("[DB] Failed to persist score for %s in session %s: %v", playerID, sessionID, err)
			}
		}()
	}

	// Broadcast after every submission so clients can show "opponent answered"
	sm.hub.ToRoom(session.Room, map[string]interface{}{
		"type":       "score_update",
		"session_id": sessionID,
		"players":    sm.scoreboardLocked(session),
	})
}

// Forfeit ends the session immediately with the other player as winner.
func (sm *SessionManager) Forfeit(sessionID, playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[sessionID]
	if !ok {
		log.Printf("[GAME] Ignoring forfeit for unknown session %s", sessionID)
		return
	}
	if _, ok := session.players[playerID]; !ok {
		log.Printf("[GAME] Ignoring forfeit from %s: not in session %s", playerID, sessionID)
		return
	}

	log.Printf("[GAME] Player %s forfeited session %s", playerID, sessionID)
	sm.endLocked(session, session.opponentOf(playerID), ReasonForfeit)
}

// HandleDisconnect ends the player's live session, if any, with the remaining
// player as winner. Safe to call for players with no session.
func (sm *SessionManager) HandleDisconnect(playerID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sessionID, ok := sm.playerToSession[playerID]
	if !ok {
		return
	}
	session, ok := sm.sessions[sessionID]
	if !ok {
		return
	}

	log.Printf("[GAME] Player %s disconnected from session %s", playerID, sessionID)
	sm.endLocked(session, session.opponentOf(playerID), ReasonDisconnect)
}

// InSession reports whether the player is part of a live session.
func (sm *SessionManager) InSession(playerID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.playerToSession[playerID]
	return ok
}

// ActiveSessionCount returns the number of live sessions.
func (sm *SessionManager) ActiveSessionCount() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// onReadyTimeout cancels a session whose players never both signalled ready.
// No winner and no rating change: the match never started.
func (sm *SessionManager) onReadyTimeout(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, ok := sm.sessions[sessionID]
	if !ok || session.Status != StatusAwaitingReady {
		return
	}

	log.Printf("[GAME] Session %s cancelled: ready timeout", sessionID)
	sm.endLocked(session, "", ReasonReadyTimeout)
}

// endLocked finishes the session: cancels any pending timer, derives the
// winner for natural completion, persists the result, updates ratings and
// broadcasts game_over. The runtime state is discarded. Caller holds sm.mu.
func (sm *SessionManager) endLocked(session *matchSession, winnerID, reason string) {
	sm.stopTimerLocked(session)
	session.Status = StatusCompleted

	if winnerID == "" && reason == ReasonCompleted {
		a := session.players[session.order[0]]
		b := session.players[session.order[1]]
		if a.Score > b.Score {
			winnerID = a.Info.ID
		} else if b.Score > a.Score {
			winnerID = b.Info.ID
		}
		// tie: no winner, draw
	}

	delete(sm.sessions, session.ID)
	for id := range session.players {
		// Only clear the mapping if it still points here; the player may
		// have since been placed in a newer session.
		if sm.playerToSession[id] == session.ID {
			delete(sm.playerToSession, id)
		}
	}

	ctx := context.Background()
	if err := sm.store.CompleteSession(ctx, session.ID, winnerID); err != nil {
		log.Printf("[DB] Failed to complete session %s: %v", session.ID, err)
	}

	var newRatings map[string]int
	if reason != ReasonReadyTimeout && reason != ReasonError {
		newRatings = sm.applyRatings(ctx, session, winnerID)
	}

	var winner interface{}
	if winnerID != "" {
		winner = winnerID
	}
	sm.hub.ToRoom(session.Room, map[string]interface{}{
		"type":       "game_over",
		"session_id": session.ID,
		"scores":     sm.scoreboardLocked(session),
		"winner_id":  winner,
		"reason":     reason,
		"ratings":    newRatings,
	})

	for id := range session.players {
		sm.hub.LeaveRoom(id, session.Room)
	}

	log.Printf("[GAME] Session %s ended: winner=%q reason=%s", session.ID, winnerID, reason)
}

// applyRatings computes and persists the ELO update for both players.
// Both writes are best-effort and independent.
func (sm *SessionManager) applyRatings(ctx context.Context, session *matchSession, winnerID string) map[string]int {
	aID, bID := session.order[0], session.order[1]

	current, err := sm.ratings.GetRatings(ctx, []string{aID, bID})
	if err != nil {
		log.Printf("[DB] Failed to load ratings for session %s: %v", session.ID, err)
		return nil
	}

	outcomeA := 0.5
	switch winnerID {
	case aID:
		outcomeA = 1
	case bID:
		outcomeA = 0
	}

	newA, newB := ComputeRatings(current[aID], current[bID], outcomeA)

	updated := map[string]int{aID: newA, bID: newB}
	for _, id := range []string{aID, bID} {
		if err := sm.ratings.SetRating(ctx, id, updated[id]); err != nil {
			log.Printf("[DB] Failed to set rating for %s: %v", id, err)
		}
		if err := sm.ratings.RecordRatingChange(ctx, id, session.ID, current[id], updated[id]); err != nil {
			log.Printf("[DB] Failed to record rating history for %s: %v", id, err)
		}
	}

	return updated
}

// scoreboardLocked builds the per-player score payload in pairing order.
func (sm *SessionManager) scoreboardLocked(session *matchSession) []map[string]interface{} {
	board := make([]map[string]interface{}, 0, 2)
	for _, id := range session.order {
		p := session.players[id]
		board = append(board, map[string]interface{}{
			"id":           p.Info.ID,
			"username":     p.Info.Username,
			"score":        p.Score,
			"has_answered": p.HasAnswered,
		})
	}
	return board
}

func (sm *SessionManager) stopTimerLocked(session *matchSession) {
	if session.timer != nil {
		session.timer.Stop()
		session.timer = nil
	}
}
