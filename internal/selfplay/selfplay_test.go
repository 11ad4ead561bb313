package selfplay

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/drafti/drafti-backend/internal/bot"
	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/drafti/drafti-backend/internal/testutil"
)

func TestPlayGame(t *testing.T) {
	white, err := bot.New(3, 1)
	testutil.AssertNoError(t, err)
	black, err := bot.New(1, 2)
	testutil.AssertNoError(t, err)

	rec, err := PlayGame(context.Background(), "g1", white, black, DefaultMaxPlies)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, rec.PlyCount, int32(len(rec.Plies)))
	testutil.AssertEqual(t, []int32{rec.WhiteLevel, rec.BlackLevel}, []int32{3, 1})

	// Replaying the notations reaches the recorded final position.
	board, toMove := engine.CreateInitialState(), engine.White
	for _, p := range rec.Plies {
		req, err := engine.ParseNotation(p.Notation)
		testutil.AssertNoError(t, err, "ply %d", p.Ply)
		m, ok := engine.FindMove(engine.GenerateLegalMoves(board, toMove), req)
		if !ok {
			t.Fatalf("ply %d: %s is not legal", p.Ply, p.Notation)
		}
		board = engine.ApplyMove(board, m)
		toMove = toMove.Opponent()
	}
	testutil.AssertEqual(t, engine.FEN(board, toMove), rec.FinalFEN)
	if rec.PlyCount < DefaultMaxPlies && rec.Result == engine.InProgress.String() {
		t.Errorf("game stopped after %d plies without a result", rec.PlyCount)
	}
}

func TestPlayGameCancelled(t *testing.T) {
	white, _ := bot.New(1, 1)
	black, _ := bot.New(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := PlayGame(ctx, "g1", white, black, DefaultMaxPlies); !errors.Is(err, context.Canceled) {
		t.Errorf("PlayGame error = %v, want context.Canceled", err)
	}
}

func TestRunRejectsBadLevel(t *testing.T) {
	results := make(chan Record)
	err := Run(context.Background(), Options{Games: 1, WhiteLevel: 9, BlackLevel: 1}, results)
	if !errors.Is(err, bot.ErrInvalidLevel) {
		t.Errorf("Run error = %v, want ErrInvalidLevel", err)
	}
	if _, ok := <-results; ok {
		t.Error("results not closed")
	}
}

func TestRunWritesParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.parquet")
	results := make(chan Record)
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- WriteParquet(path, results, 1)
	}()

	err := Run(context.Background(), Options{Games: 3, WhiteLevel: 1, BlackLevel: 2, Workers: 2, MaxPlies: 60, Seed: 7}, results)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, <-writeErr)

	records, err := ReadParquet(path, 1)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(records), 3)
	for _, rec := range records {
		testutil.AssertEqual(t, int(rec.PlyCount), len(rec.Plies), "game %s", rec.GameID)
		if rec.PlyCount > 60 {
			t.Errorf("game %s ran %d plies, limit 60", rec.GameID, rec.PlyCount)
		}
		if _, _, err := engine.ParseFEN(rec.FinalFEN); err != nil {
			t.Errorf("game %s final FEN: %v", rec.GameID, err)
		}
	}
}
