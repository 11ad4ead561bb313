package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/drafti/drafti-backend/internal/selfplay"
)

func main() {
	games := flag.Int("games", 100, "number of games to play")
	whiteLevel := flag.Int("white", 3, "white bot level (1-7)")
	blackLevel := flag.Int("black", 3, "black bot level (1-7)")
	workers := flag.Int("workers", 1, "number of parallel games")
	maxPlies := flag.Int("max-plies", selfplay.DefaultMaxPlies, "abandon a game after this many plies")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	outputPath := flag.String("output", "selfplay.parquet", "output parquet file")
	flag.Parse()

	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalw("failed to create output directory", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := make(chan selfplay.Record, *workers)
	writeErr := make(chan error, 1)
	var writeWg sync.WaitGroup
	writeWg.Add(1)
	go func() {
		defer writeWg.Done()
		err := selfplay.WriteParquet(*outputPath, results, int64(*workers))
		if err != nil {
			// Unblock the players.
			stop()
		}
		writeErr <- err
	}()

	start := time.Now()
	runErr := selfplay.Run(ctx, selfplay.Options{
		Games:      *games,
		WhiteLevel: *whiteLevel,
		BlackLevel: *blackLevel,
		Workers:    *workers,
		MaxPlies:   *maxPlies,
		Seed:       *seed,
	}, results)
	writeWg.Wait()

	if err := <-writeErr; err != nil {
		log.Fatalw("failed to write parquet", "error", err)
	}
	if runErr != nil {
		log.Fatalw("self-play stopped", "error", runErr)
	}
	log.Infow("self-play finished", "games", *games, "output", *outputPath, "elapsed", time.Since(start))
}
