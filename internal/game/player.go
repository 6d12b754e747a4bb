package game

import (
	"context"
	"strings"
	"time"

	"github.com/quizwhiz/backend/internal/models"
)

// timedOutNotice carries the answer reveal owed to the player at the top of
// the iteration after a question timed out.
type timedOutNotice struct {
	key  string
	text string
}

// RunStateInterrupts is the interrupt task of a player session. It polls the
// game state and relays pause/resume/end to the player; the question task
// never emits these itself.
func (e *Engine) RunStateInterrupts(ctx context.Context, conn Conn, code string) error {
	ticker := time.NewTicker(e.StatePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		state, err := e.store.GetState(ctx, code)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return err
		}

		switch state {
		case models.StateEnded:
			conn.Send(TokenEnd)
			return nil

		case models.StatePaused:
			if err := conn.Send(TokenPause); err != nil {
				return err
			}
			for state == models.StatePaused {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
				if state, err = e.store.GetState(ctx, code); err != nil {
					return err
				}
			}
			if state == models.StateEnded {
				conn.Send(TokenEnd)
				return nil
			}
			if err := conn.Send(TokenResume); err != nil {
				return err
			}
		}
	}
}

// RunPlayerQuestions is the question task of a player session: it serves the
// player's randomized question queue until it is exhausted, the game ends,
// or the connection drops. The in-flight question fields in the player
// record are persisted at every transition so a reconnected session resumes
// exactly where the old one stopped, with the original time window.
func (e *Engine) RunPlayerQuestions(ctx context.Context, conn Conn, code, name string) error {
	var (
		awaitAck bool
		timedOut *timedOutNotice
	)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		game, err := e.store.GetGame(ctx, code)
		if err != nil {
			if isNotFound(err) {
				conn.Send(TokenGameNotFound)
				return nil
			}
			return err
		}
		players, err := e.store.GetPlayers(ctx, code)
		if err != nil {
			return err
		}
		player, ok := players[name]
		if !ok {
			conn.Send(TokenUserNotInGame)
			return nil
		}

		// Discard queued input left over from before this iteration.
		e.drain(conn)

		if awaitAck {
			if timedOut != nil {
				reveal := outOfTimePayload{Answer: timedOut.key + ". " + timedOut.text}
				if err := conn.SendJSON(map[string]any{"out_of_time": reveal}); err != nil {
					return err
				}
				timedOut = nil
			}
			// Human-paced "next": wait for one inbound message before
			// moving on.
			if _, err := conn.Receive(); err != nil {
				return err
			}
			awaitAck = false
		}

		if len(player.RemainingQuestions) == 0 && player.Idle() {
			conn.Send(TokenAllQuestionsAnswered)
			return nil
		}

		// Recover a session whose timer expired while disconnected: the
		// question counts as incorrect and the loop moves on.
		if !player.Idle() && player.QuestionStartTime != nil &&
			e.now().Sub(*player.QuestionStartTime) >= e.TimeLimit {
			idx := player.CurrentQuestionIndex
			if _, err := e.updatePlayer(ctx, code, name, func(p *models.Player) {
				p.IncorrectQuestions = append(p.IncorrectQuestions, idx)
				p.ResetInFlight()
			}); err != nil {
				return err
			}
			continue
		}

		// Questions are only presented while the game is running.
		state, err := e.store.GetState(ctx, code)
		if err != nil && !isNotFound(err) {
			return err
		}
		if state == models.StateEnded {
			return nil
		}
		if state != models.StateStarted {
			if err := sleep(ctx, e.StatePollInterval); err != nil {
				return err
			}
			continue
		}

		if player.Idle() {
			next := player.RemainingQuestions[len(player.RemainingQuestions)-1]
			start := e.now()
			player, err = e.updatePlayer(ctx, code, name, func(p *models.Player) {
				p.RemainingQuestions = p.RemainingQuestions[:len(p.RemainingQuestions)-1]
				p.CurrentQuestionIndex = next
				p.QuestionStartTime = &start
				p.QuestionAttempt = 0
			})
			if err != nil {
				return err
			}
		}

		question := game.Questions[player.CurrentQuestionIndex]
		if err := conn.SendJSON(map[string]any{"question": questionPayload{
			Question:           question.Question,
			Options:            question.Options,
			StartTime:          player.QuestionStartTime.UnixMilli(),
			QuestionsRemaining: len(player.RemainingQuestions),
			TotalQuestions:     len(game.Questions),
		}}); err != nil {
			return err
		}

		points, correct, resolved, err := e.runAttempts(ctx, conn, code, name, &player, question)
		if err != nil {
			return err
		}

		if !resolved {
			// Timed out inside the attempt loop; the record was already
			// moved to incorrect. Owe the player the answer reveal and an
			// ack before the next question.
			timedOut = &timedOutNotice{key: question.Answer, text: question.Options[question.Answer]}
			awaitAck = true
		} else {
			idx := player.CurrentQuestionIndex
			if _, err := e.updatePlayer(ctx, code, name, func(p *models.Player) {
				p.Score += points
				if correct {
					p.CorrectQuestions = append(p.CorrectQuestions, idx)
				} else {
					p.IncorrectQuestions = append(p.IncorrectQuestions, idx)
				}
				p.ResetInFlight()
			}); err != nil {
				return err
			}
			awaitAck = true
		}

		snapshot, err := e.store.GetPlayers(ctx, code)
		if err != nil {
			return err
		}
		if err := conn.SendJSON(map[string]any{"leaderboard": Relative(snapshot, name)}); err != nil {
			return err
		}
	}
}

// runAttempts runs the answer loop for the player's current question.
// Returns resolved=false when the window elapsed without a final answer; in
// that case the player record has already been advanced past the question.
func (e *Engine) runAttempts(ctx context.Context, conn Conn, code, name string, player *models.Player, question models.Question) (points int, correct, resolved bool, err error) {
	attempt := player.QuestionAttempt
	deadline := player.QuestionStartTime.Add(e.TimeLimit)

	for {
		if ctx.Err() != nil {
			return 0, false, false, ctx.Err()
		}

		remaining := deadline.Sub(e.now())
		if remaining < 0 {
			remaining = 0
		}
		msg, recvErr := conn.ReceiveTimeout(remaining)
		if recvErr == ErrReceiveTimeout {
			if e.now().Before(deadline) {
				continue
			}
			// Window fully elapsed: the question is lost.
			idx := player.CurrentQuestionIndex
			if _, err := e.updatePlayer(ctx, code, name, func(p *models.Player) {
				p.IncorrectQuestions = append(p.IncorrectQuestions, idx)
				p.ResetInFlight()
			}); err != nil {
				return 0, false, false, err
			}
			return 0, false, false, nil
		}
		if recvErr != nil {
			return 0, false, false, recvErr
		}

		answer := strings.TrimSpace(msg)
		key, ok := matchOption(question.Options, answer)
		if answer == "" || !ok {
			zero := 0
			if err := conn.SendJSON(map[string]any{"attempt": attemptPayload{
				Valid: false, Final: false, Correct: false, Points: &zero,
			}}); err != nil {
				return 0, false, false, err
			}
			continue
		}

		// Valid answers that raced a pause or the end of the game are
		// dropped without consuming an attempt.
		state, stateErr := e.store.GetState(ctx, code)
		if stateErr == nil && state != models.StateStarted {
			continue
		}

		if key == question.Answer {
			points = Score(e.MaxPoints, attempt, e.now().Sub(*player.QuestionStartTime), e.TimeLimit)
			if err := conn.SendJSON(map[string]any{"attempt": attemptPayload{
				Valid: true, Final: true, Correct: true, Points: &points,
			}}); err != nil {
				return 0, false, false, err
			}
			return points, true, true, nil
		}

		if attempt+1 >= e.MaxAttempts {
			zero := 0
			if err := conn.SendJSON(map[string]any{"attempt": attemptPayload{
				Valid: true, Final: true, Correct: false, Points: &zero, Answer: question.Answer,
			}}); err != nil {
				return 0, false, false, err
			}
			return 0, false, true, nil
		}

		// First wrong answer: burn the attempt, then offer AI help.
		if err := conn.SendJSON(map[string]any{"attempt": attemptPayload{
			Valid: true, Final: false, Correct: false,
		}}); err != nil {
			return 0, false, false, err
		}
		attempt++
		if _, err := e.updatePlayer(ctx, code, name, func(p *models.Player) {
			p.QuestionAttempt = attempt
		}); err != nil {
			return 0, false, false, err
		}
		if hint, ok := e.hint(ctx, code, player.CurrentQuestionIndex, key, question); ok {
			if err := conn.SendJSON(map[string]string{"help": hint}); err != nil {
				return 0, false, false, err
			}
		}
	}
}

// drain discards any inbound text already queued on the connection.
func (e *Engine) drain(conn Conn) {
	for {
		if _, err := conn.ReceiveTimeout(e.DrainTimeout); err != nil {
			return
		}
	}
}

// matchOption compares answer case-insensitively against the option keys and
// normalizes it to the case the keys use.
func matchOption(options map[string]string, answer string) (string, bool) {
	for key := range options {
		if strings.EqualFold(key, answer) {
			return key, true
		}
	}
	return "", false
}
