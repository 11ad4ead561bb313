package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/drafti/drafti-backend/internal/model"
	"github.com/drafti/drafti-backend/internal/testutil"
)

type firstMoveOpponent struct{}

func (firstMoveOpponent) NextMove(b engine.Board, c engine.Color) (engine.Move, error) {
	moves := engine.GenerateLegalMoves(b, c)
	if len(moves) == 0 {
		return engine.Move{}, errors.New("no moves")
	}
	return moves[0], nil
}

func newTestManager(t *testing.T, settings Settings) *GameManager {
	t.Helper()
	if settings.MatchmakingTick == 0 {
		// Tests drive matchmaking through matchOnce.
		settings.MatchmakingTick = time.Hour
	}
	gm := NewGameManager(settings, WithOpponentFactory(func(level int) (model.Opponent, error) {
		return firstMoveOpponent{}, nil
	}))
	t.Cleanup(gm.Close)
	return gm
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMatchmaking(t *testing.T) {
	gm := newTestManager(t, Settings{})

	testutil.AssertNoError(t, gm.JoinMatchmaking("alice"))
	if err := gm.JoinMatchmaking("alice"); !errors.Is(err, model.ErrAlreadyQueued) {
		t.Errorf("second JoinMatchmaking error = %v, want ErrAlreadyQueued", err)
	}
	testutil.AssertEqual(t, gm.matchOnce(), false)

	testutil.AssertNoError(t, gm.JoinMatchmaking("bob"))
	channels := map[string]chan string{"alice": make(chan string, 1), "bob": make(chan string, 1)}
	for id, ch := range channels {
		testutil.AssertNoError(t, gm.RegisterMatchmakingChannel(id, ch))
	}

	testutil.AssertEqual(t, gm.matchOnce(), true)
	testutil.AssertEqual(t, gm.matchOnce(), false)

	var events []model.MatchFoundEvent
	for _, id := range []string{"alice", "bob"} {
		raw, ok := <-channels[id]
		if !ok {
			t.Fatalf("%s channel closed without an event", id)
		}
		var ev model.MatchFoundEvent
		testutil.AssertNoError(t, json.Unmarshal([]byte(raw), &ev))
		events = append(events, ev)
		if _, ok := <-channels[id]; ok {
			t.Errorf("%s channel not closed after the event", id)
		}
	}
	testutil.AssertEqual(t, events[0].GameID, events[1].GameID)
	testutil.AssertEqual(t, []engine.Color{events[0].Color, events[1].Color}, []engine.Color{engine.White, engine.Black})

	game, err := gm.GetGame(events[0].GameID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, game.Status(), engine.StatusActive)
}

func TestUnregisterMatchmakingLeavesQueue(t *testing.T) {
	gm := newTestManager(t, Settings{})
	ch := make(chan string, 1)
	testutil.AssertNoError(t, gm.JoinMatchmaking("alice"))
	testutil.AssertNoError(t, gm.RegisterMatchmakingChannel("alice", ch))

	// A stale channel does not unregister the current one.
	gm.UnregisterMatchmakingChannel("alice", make(chan string))
	testutil.AssertEqual(t, gm.queue.Contains("alice"), true)

	gm.UnregisterMatchmakingChannel("alice", ch)
	testutil.AssertEqual(t, gm.queue.Contains("alice"), false)
}

func TestRegisterMatchmakingChannelClosesOld(t *testing.T) {
	gm := newTestManager(t, Settings{})
	old := make(chan string, 1)
	testutil.AssertNoError(t, gm.RegisterMatchmakingChannel("alice", old))
	testutil.AssertNoError(t, gm.RegisterMatchmakingChannel("alice", make(chan string, 1)))
	if _, ok := <-old; ok {
		t.Error("old channel still open")
	}
}

func TestGameNotFound(t *testing.T) {
	gm := newTestManager(t, Settings{})
	_, err := gm.GetGameState("missing")
	if !errors.Is(err, model.ErrGameNotFound) {
		t.Errorf("GetGameState error = %v, want ErrGameNotFound", err)
	}
	if _, err := gm.MakeMove("missing", "alice", engine.MoveRequest{From: 9, To: 13}); !errors.Is(err, model.ErrGameNotFound) {
		t.Errorf("MakeMove error = %v, want ErrGameNotFound", err)
	}
	if err := gm.CreateGame("g1"); err != nil {
		t.Fatal(err)
	}
	if err := gm.CreateGame("g1"); !errors.Is(err, model.ErrGameExists) {
		t.Errorf("duplicate CreateGame error = %v, want ErrGameExists", err)
	}
}

func TestAIGameComputerMovesFirst(t *testing.T) {
	gm := newTestManager(t, Settings{})
	testutil.AssertNoError(t, gm.CreateAIGame("g1", "alice", 0, engine.Black))

	game, err := gm.GetGame("g1")
	testutil.AssertNoError(t, err)
	color, ok := game.ColorOf("alice")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, color, engine.Black)
	testutil.AssertEqual(t, game.GetState().Players.White.Level, 3)

	waitFor(t, "computer opening move", func() bool {
		return game.GetState().ToMove == engine.Black
	})
}

func TestAIGameReplies(t *testing.T) {
	gm := newTestManager(t, Settings{})
	testutil.AssertNoError(t, gm.CreateAIGame("g1", "alice", 5, engine.White))

	_, err := gm.MakeMove("g1", "alice", engine.MoveRequest{From: 9, To: 13})
	testutil.AssertNoError(t, err)

	game, err := gm.GetGame("g1")
	testutil.AssertNoError(t, err)
	waitFor(t, "computer reply", func() bool {
		return game.GetState().ToMove == engine.White
	})
	state := game.GetState()
	testutil.AssertEqual(t, len(state.MoveHistory), 1)
	testutil.AssertEqual(t, state.MoveHistory[0].BlackPly.Player, engine.Black)
}

func TestClockSweepEndsGame(t *testing.T) {
	gm := newTestManager(t, Settings{InitialClock: 30 * time.Millisecond, ClockSweep: 5 * time.Millisecond})
	testutil.AssertNoError(t, gm.CreateGame("g1"))
	for _, id := range []string{"alice", "bob"} {
		if _, err := gm.AddPlayerToGame("g1", id); err != nil {
			t.Fatal(err)
		}
	}

	game, err := gm.GetGame("g1")
	testutil.AssertNoError(t, err)
	waitFor(t, "flag fall", func() bool {
		return game.Status() == engine.StatusFinished
	})
	testutil.AssertEqual(t, game.Outcome().State, engine.BlackWins)
	testutil.AssertEqual(t, game.Outcome().Reason, engine.ReasonTimeout)
}

func TestCloseIsIdempotent(t *testing.T) {
	gm := NewGameManager(Settings{})
	gm.Close()
	gm.Close()
	testutil.AssertEqual(t, gm.closed, true)
}
