package models

import (
	"time"
)

// GameState is the lifecycle state of a game. States are uppercase both on
// the wire and in storage.
type GameState string

const (
	StateWaiting GameState = "WAITING"
	StateStarted GameState = "STARTED"
	StatePaused  GameState = "PAUSED"
	StateEnded   GameState = "ENDED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s GameState) Valid() bool {
	switch s {
	case StateWaiting, StateStarted, StatePaused, StateEnded:
		return true
	}
	return false
}

// Question is a single multiple-choice question. Options maps option keys
// (uniform case, typically A-D) to option text. Answer is the key of the
// correct option.
type Question struct {
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
	Answer   string            `json:"answer"`
}

// Game is the immutable game header stored at game:<CODE>. StartTime is the
// wall time of the first start command, nil until then.
type Game struct {
	Code      string     `json:"code"`
	Questions []Question `json:"questions"`
	StartTime *time.Time `json:"start_time"`
}

// GameHeader is Game without the question list, as pushed to the host in
// metrics snapshots.
type GameHeader struct {
	Code      string     `json:"code"`
	StartTime *time.Time `json:"start_time"`
}

// Header returns the game header without questions.
func (g *Game) Header() GameHeader {
	return GameHeader{Code: g.Code, StartTime: g.StartTime}
}

// IdleQuestionIndex marks a player as idle between questions.
const IdleQuestionIndex = -1

// Player is one participant's record inside the players map. New players are
// built by NewPlayer.
type Player struct {
	ID                   string     `json:"id"`
	Score                int        `json:"score"`
	RemainingQuestions   []int      `json:"remaining_questions"`
	CorrectQuestions     []int      `json:"correct_questions"`
	IncorrectQuestions   []int      `json:"incorrect_questions"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	QuestionStartTime    *time.Time `json:"question_start_time"`
	QuestionAttempt      int        `json:"question_attempt"`
	WebsocketID          *string    `json:"websocket_id"`
	GithubAvatar         *string    `json:"github_avatar"`
}

// NewPlayer builds a fresh player record. queue is the randomized question
// index permutation, consumed from the tail.
func NewPlayer(id string, queue []int, avatar *string) Player {
	return Player{
		ID:                   id,
		RemainingQuestions:   queue,
		CorrectQuestions:     []int{},
		IncorrectQuestions:   []int{},
		CurrentQuestionIndex: IdleQuestionIndex,
		GithubAvatar:         avatar,
	}
}

// Idle reports whether the player has no question in flight.
func (p *Player) Idle() bool {
	return p.CurrentQuestionIndex == IdleQuestionIndex
}

// AnsweredCount is the number of questions the player has resolved so far.
func (p *Player) AnsweredCount() int {
	return len(p.CorrectQuestions) + len(p.IncorrectQuestions)
}

// ResetInFlight clears the in-flight question fields back to idle.
func (p *Player) ResetInFlight() {
	p.CurrentQuestionIndex = IdleQuestionIndex
	p.QuestionStartTime = nil
	p.QuestionAttempt = 0
}

// Players is the whole-value players record stored at game:<CODE>:players,
// keyed by player name.
type Players map[string]Player

// AICache caches hint text per (question index, wrong option key), stored at
// game:<CODE>:ai_cache.
type AICache map[int]map[string]string

// Get returns the cached hint for (questionIndex, wrongKey), if any.
func (c AICache) Get(questionIndex int, wrongKey string) (string, bool) {
	if c == nil {
		return "", false
	}
	byKey, ok := c[questionIndex]
	if !ok {
		return "", false
	}
	hint, ok := byKey[wrongKey]
	return hint, ok
}

// Put stores a hint for (questionIndex, wrongKey).
func (c AICache) Put(questionIndex int, wrongKey, hint string) {
	byKey, ok := c[questionIndex]
	if !ok {
		byKey = make(map[string]string)
		c[questionIndex] = byKey
	}
	byKey[wrongKey] = hint
}
