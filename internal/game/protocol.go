package game

// Bracketed control tokens sent server -> client over the duplex channels.
const (
	TokenWaiting              = "[WAITING]"
	TokenStart                = "[START]"
	TokenPause                = "[PAUSE]"
	TokenResume               = "[RESUME]"
	TokenEnd                  = "[END]"
	TokenGameNotFound         = "[GAME_NOT_FOUND]"
	TokenUserNotInGame        = "[USER_NOT_IN_GAME]"
	TokenUserAlreadyConnected = "[USER_ALREADY_CONNECTED]"
	TokenHostAlreadyConnected = "[HOST_ALREADY_CONNECTED]"
	TokenAllQuestionsAnswered = "[ALL_QUESTIONS_ANSWERED]"
	TokenInvalidCommand       = "[INVALID_COMMAND]"
)

// questionPayload is the question as presented to a player: the answer key is
// stripped and progress fields are attached. StartTime is Unix milliseconds
// of first presentation so a reconnecting client can compute remaining time.
type questionPayload struct {
	Question           string            `json:"question"`
	Options            map[string]string `json:"options"`
	StartTime          int64             `json:"start_time"`
	QuestionsRemaining int               `json:"questions_remaining"`
	TotalQuestions     int               `json:"total_questions"`
}

// attemptPayload is the feedback for one submitted answer.
type attemptPayload struct {
	Valid   bool   `json:"valid"`
	Final   bool   `json:"final"`
	Correct bool   `json:"correct"`
	Points  *int   `json:"points,omitempty"`
	Answer  string `json:"answer,omitempty"`
}

// outOfTimePayload reveals the correct answer after the window elapsed.
type outOfTimePayload struct {
	Answer string `json:"answer"`
}
