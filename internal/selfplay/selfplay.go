// Package selfplay plays bot-against-bot games and records them for offline
// analysis of the evaluation function.
package selfplay

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/drafti/drafti-backend/internal/bot"
	"github.com/drafti/drafti-backend/internal/engine"
)

// DefaultMaxPlies ends a game that is still running after this many plies.
const DefaultMaxPlies = 400

// PlyRecord is one applied move.
type PlyRecord struct {
	Ply      int32  `parquet:"name=ply, type=INT32"`
	Notation string `parquet:"name=notation, type=BYTE_ARRAY, convertedtype=UTF8"`
	Captures int32  `parquet:"name=captures, type=INT32"`
	Promoted bool   `parquet:"name=promoted, type=BOOLEAN"`
}

// Record is one finished (or abandoned) game.
type Record struct {
	GameID     string      `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	WhiteLevel int32       `parquet:"name=white_level, type=INT32"`
	BlackLevel int32       `parquet:"name=black_level, type=INT32"`
	Result     string      `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	Reason     string      `parquet:"name=reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlyCount   int32       `parquet:"name=ply_count, type=INT32"`
	FinalFEN   string      `parquet:"name=final_fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	Plies      []PlyRecord `parquet:"name=plies, type=LIST"`
}

type Options struct {
	Games      int
	WhiteLevel int
	BlackLevel int
	Workers    int
	MaxPlies   int
	Seed       int64
}

// PlayGame plays one game between white and black from the initial setup.
// A game reaching maxPlies is recorded as in progress.
func PlayGame(ctx context.Context, id string, white, black *bot.Bot, maxPlies int) (Record, error) {
	rec := Record{
		GameID:     id,
		WhiteLevel: int32(white.Level()),
		BlackLevel: int32(black.Level()),
	}

	board, toMove := engine.CreateInitialState(), engine.White
	history := []engine.Board{board}
	out := engine.GetTerminalState(board, toMove, history)
	for ply := 0; ply < maxPlies && !out.State.IsOver(); ply++ {
		if err := ctx.Err(); err != nil {
			return Record{}, err
		}
		player := white
		if toMove == engine.Black {
			player = black
		}
		m, err := player.NextMove(board, toMove)
		if err != nil {
			return Record{}, fmt.Errorf("game %s ply %d: %w", id, ply, err)
		}
		rec.Plies = append(rec.Plies, PlyRecord{
			Ply:      int32(ply),
			Notation: m.Notation,
			Captures: int32(len(m.CapturedSquares)),
			Promoted: m.IsPromotion,
		})

		board = engine.ApplyMove(board, m)
		toMove = toMove.Opponent()
		history = append(history, board)
		out = engine.GetTerminalState(board, toMove, history)
	}

	rec.Result = out.State.String()
	rec.Reason = out.Reason.String()
	rec.PlyCount = int32(len(rec.Plies))
	rec.FinalFEN = engine.FEN(board, toMove)
	return rec, nil
}

// Run plays opts.Games games on opts.Workers goroutines and sends each record
// to results, which it closes when done.
func Run(ctx context.Context, opts Options, results chan<- Record) error {
	defer close(results)

	if opts.MaxPlies <= 0 {
		opts.MaxPlies = DefaultMaxPlies
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > opts.Games {
		workers = opts.Games
	}
	// Reject bad levels before starting any worker.
	for _, level := range []int{opts.WhiteLevel, opts.BlackLevel} {
		if _, err := bot.DepthForLevel(level); err != nil {
			return err
		}
	}

	jobs := make(chan int)
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				seed := opts.Seed + int64(2*n)
				white, _ := bot.New(opts.WhiteLevel, seed)
				black, _ := bot.New(opts.BlackLevel, seed+1)
				rec, err := PlayGame(ctx, uuid.New().String(), white, black, opts.MaxPlies)
				if err != nil {
					errCh <- err
					return
				}
				log.Debugw("self-play game finished", "game", rec.GameID, "result", rec.Result, "plies", rec.PlyCount)
				select {
				case results <- rec:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

feed:
	for n := 0; n < opts.Games; n++ {
		select {
		case jobs <- n:
		case err := <-errCh:
			errCh <- err
			break feed
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(errCh)

	if err, ok := <-errCh; ok {
		return err
	}
	return ctx.Err()
}
