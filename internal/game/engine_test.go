package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizwhiz/backend/internal/models"
	"github.com/quizwhiz/backend/internal/store"
)

var errConnClosed = errors.New("connection closed")

// fakeConn is an in-memory Conn for driving sessions from tests. Frames the
// engine sends are read from out; client input is pushed into in.
type fakeConn struct {
	in        chan string
	out       chan string
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan string, 16),
		out:    make(chan string, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) Send(text string) error {
	select {
	case <-f.closed:
		return errConnClosed
	case f.out <- text:
		return nil
	}
}

func (f *fakeConn) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return f.Send(string(data))
}

func (f *fakeConn) Receive() (string, error) {
	select {
	case msg := <-f.in:
		return msg, nil
	case <-f.closed:
		return "", errConnClosed
	}
}

func (f *fakeConn) ReceiveTimeout(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-f.in:
		return msg, nil
	case <-f.closed:
		return "", errConnClosed
	case <-timer.C:
		return "", ErrReceiveTimeout
	}
}

func (f *fakeConn) Close() {
	f.closeOnce.Do(func() { close(f.closed) })
}

// next pops the next frame the engine sent, failing the test after a grace
// period.
func (f *fakeConn) next(t *testing.T) string {
	t.Helper()
	select {
	case msg := <-f.out:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return ""
	}
}

// expectSilence asserts no frame arrives within d.
func (f *fakeConn) expectSilence(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case msg := <-f.out:
		t.Fatalf("unexpected frame: %s", msg)
	case <-time.After(d):
	}
}

func testEngine(st store.Store, hints HintProvider) *Engine {
	e := NewEngine(st, hints, nil)
	e.StatePollInterval = 5 * time.Millisecond
	e.MetricsInterval = 10 * time.Millisecond
	e.DrainTimeout = time.Millisecond
	return e
}

func twoQuestionGame(code string) *models.Game {
	return &models.Game{
		Code: code,
		Questions: []models.Question{
			{
				Question: "What is 2+2?",
				Options:  map[string]string{"A": "3", "B": "4", "C": "5", "D": "22"},
				Answer:   "B",
			},
			{
				Question: "What is 7*6?",
				Options:  map[string]string{"A": "42", "B": "13", "C": "76", "D": "67"},
				Answer:   "A",
			},
		},
	}
}

func seedGame(t *testing.T, st store.Store, game *models.Game, state models.GameState) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.PutGame(ctx, game.Code, game))
	require.NoError(t, st.PutPlayers(ctx, game.Code, models.Players{}))
	require.NoError(t, st.PutState(ctx, game.Code, state))
}

func seedPlayer(t *testing.T, st store.Store, code, name string, p models.Player) {
	t.Helper()
	ctx := context.Background()
	players, err := st.GetPlayers(ctx, code)
	require.NoError(t, err)
	players[name] = p
	require.NoError(t, st.PutPlayers(ctx, code, players))
}

func getState(t *testing.T, st store.Store, code string) models.GameState {
	t.Helper()
	state, err := st.GetState(context.Background(), code)
	require.NoError(t, err)
	return state
}

func getPlayer(t *testing.T, st store.Store, code, name string) models.Player {
	t.Helper()
	players, err := st.GetPlayers(context.Background(), code)
	require.NoError(t, err)
	p, ok := players[name]
	require.True(t, ok, "player %s missing", name)
	return p
}

// assertPartition checks that the three index sets plus the in-flight index
// partition [0, total).
func assertPartition(t *testing.T, p models.Player, total int) {
	t.Helper()
	seen := make(map[int]bool)
	add := func(idx int) {
		require.False(t, seen[idx], "index %d appears twice", idx)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, total)
		seen[idx] = true
	}
	for _, idx := range p.RemainingQuestions {
		add(idx)
	}
	for _, idx := range p.CorrectQuestions {
		add(idx)
	}
	for _, idx := range p.IncorrectQuestions {
		add(idx)
	}
	if !p.Idle() {
		add(p.CurrentQuestionIndex)
	}
	assert.Len(t, seen, total)
}

func TestHostControlTransitionTable(t *testing.T) {
	st := store.NewMemory()
	game := twoQuestionGame("ABCDE")
	seedGame(t, st, game, models.StateWaiting)

	e := testEngine(st, nil)
	conn := newFakeConn()
	defer conn.Close()

	done := make(chan error, 1)
	go func() { done <- e.RunHostControl(context.Background(), conn, "ABCDE") }()

	assert.Equal(t, TokenWaiting, conn.next(t))

	// Unreachable transitions reply [INVALID_COMMAND] and mutate nothing.
	conn.in <- "pause"
	assert.Equal(t, TokenInvalidCommand, conn.next(t))
	assert.Equal(t, models.StateWaiting, getState(t, st, "ABCDE"))

	conn.in <- "resume"
	assert.Equal(t, TokenInvalidCommand, conn.next(t))
	assert.Equal(t, models.StateWaiting, getState(t, st, "ABCDE"))

	// Commands are trimmed and case-insensitive.
	conn.in <- "  START \n"
	assert.Equal(t, TokenStart, conn.next(t))
	assert.Equal(t, models.StateStarted, getState(t, st, "ABCDE"))

	stored, err := st.GetGame(context.Background(), "ABCDE")
	require.NoError(t, err)
	require.NotNil(t, stored.StartTime, "start must stamp the header")
	assert.Len(t, stored.Questions, 2, "start must not lose the question list")

	conn.in <- "start"
	assert.Equal(t, TokenInvalidCommand, conn.next(t))
	assert.Equal(t, models.StateStarted, getState(t, st, "ABCDE"))

	conn.in <- "gibberish"
	assert.Equal(t, TokenInvalidCommand, conn.next(t))

	conn.in <- "pause"
	assert.Equal(t, TokenPause, conn.next(t))
	assert.Equal(t, models.StatePaused, getState(t, st, "ABCDE"))

	conn.in <- "resume"
	assert.Equal(t, TokenResume, conn.next(t))
	assert.Equal(t, models.StateStarted, getState(t, st, "ABCDE"))

	conn.in <- "end"
	assert.Equal(t, TokenEnd, conn.next(t))
	assert.Equal(t, models.StateEnded, getState(t, st, "ABCDE"))

	require.NoError(t, <-done)
}

func TestHostControlEndFromEndedIsSilentNoOp(t *testing.T) {
	st := store.NewMemory()
	game := twoQuestionGame("ABCDE")
	seedGame(t, st, game, models.StateEnded)

	e := testEngine(st, nil)
	conn := newFakeConn()
	defer conn.Close()

	done := make(chan error, 1)
	go func() { done <- e.RunHostControl(context.Background(), conn, "ABCDE") }()

	conn.in <- "end"
	require.NoError(t, <-done)
	conn.expectSilence(t, 20*time.Millisecond)
	assert.Equal(t, models.StateEnded, getState(t, st, "ABCDE"))
}

func TestHostControlStartKeepsOriginalStartTime(t *testing.T) {
	st := store.NewMemory()
	game := twoQuestionGame("ABCDE")
	first := time.Now().Add(-time.Hour).UTC()
	game.StartTime = &first
	seedGame(t, st, game, models.StateWaiting)

	e := testEngine(st, nil)
	conn := newFakeConn()
	defer conn.Close()

	done := make(chan error, 1)
	go func() { done <- e.RunHostControl(context.Background(), conn, "ABCDE") }()

	assert.Equal(t, TokenWaiting, conn.next(t))
	conn.in <- "start"
	assert.Equal(t, TokenStart, conn.next(t))

	stored, err := st.GetGame(context.Background(), "ABCDE")
	require.NoError(t, err)
	require.NotNil(t, stored.StartTime)
	assert.True(t, stored.StartTime.Equal(first), "start_time is set once, on first start")

	conn.Close()
	<-done
}

type metricsFrame struct {
	Metrics json.RawMessage `json:"metrics"`
}

type fullMetrics struct {
	GameData      models.GameHeader        `json:"game_data"`
	PlayerMetrics map[string]PlayerMetrics `json:"player_metrics"`
}

func TestHostMetricsInitialAndRosterChange(t *testing.T) {
	st := store.NewMemory()
	game := twoQuestionGame("ABCDE")
	seedGame(t, st, game, models.StateWaiting)

	e := testEngine(st, nil)
	conn := newFakeConn()
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.RunHostMetrics(ctx, conn, "ABCDE") }()

	// Immediate snapshot on attach: player metrics only.
	var initial metricsFrame
	require.NoError(t, json.Unmarshal([]byte(conn.next(t)), &initial))
	var onlyPlayers map[string]PlayerMetrics
	require.NoError(t, json.Unmarshal(initial.Metrics, &onlyPlayers))
	assert.Empty(t, onlyPlayers)

	// No frames while WAITING with an unchanged roster.
	conn.expectSilence(t, 50*time.Millisecond)

	// A join during WAITING must propagate.
	seedPlayer(t, st, "ABCDE", "alice", models.NewPlayer("id-a", []int{1, 0}, nil))

	var frame metricsFrame
	require.NoError(t, json.Unmarshal([]byte(conn.next(t)), &frame))
	var full fullMetrics
	require.NoError(t, json.Unmarshal(frame.Metrics, &full))
	assert.Equal(t, "ABCDE", full.GameData.Code)
	require.Contains(t, full.PlayerMetrics, "alice")
	assert.Equal(t, 2, full.PlayerMetrics["alice"].RemainingQuestions)

	// Quiet again until the game starts; then every tick.
	conn.expectSilence(t, 50*time.Millisecond)
	require.NoError(t, st.PutState(ctx, "ABCDE", models.StateStarted))
	conn.next(t)
	conn.next(t)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}
