// Package bot picks moves for computer-controlled seats.
package bot

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/drafti/drafti-backend/internal/engine"
)

const (
	MinLevel = 1
	MaxLevel = 7

	winScore      = 100000
	infiniteScore = 1_000_000_000

	manValue     = 100
	kingValue    = 300
	advanceBonus = 4
)

var (
	ErrInvalidLevel = errors.New("bot: invalid level")
	ErrNoMoves      = errors.New("bot: no legal moves to play")
)

// DepthForLevel maps a difficulty level to a search depth in plies. Depth 0
// means a uniformly random legal move.
func DepthForLevel(level int) (int, error) {
	switch {
	case level < MinLevel || level > MaxLevel:
		return 0, fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidLevel, level, MinLevel, MaxLevel)
	case level <= 2:
		return 0, nil
	case level <= 4:
		return 2, nil
	case level <= 6:
		return 3, nil
	}
	return 4, nil
}

// Bot is safe for concurrent use.
type Bot struct {
	level int
	depth int

	mu  sync.Mutex
	rng *rand.Rand
}

func New(level int, seed int64) (*Bot, error) {
	depth, err := DepthForLevel(level)
	if err != nil {
		return nil, err
	}
	return &Bot{
		level: level,
		depth: depth,
		rng:   rand.New(rand.NewSource(seed)),
	}, nil
}

func (b *Bot) Level() int {
	return b.level
}

// NextMove returns the move the bot plays for color on board.
func (b *Bot) NextMove(board engine.Board, color engine.Color) (engine.Move, error) {
	moves := engine.GenerateLegalMoves(board, color)
	if len(moves) == 0 {
		return engine.Move{}, ErrNoMoves
	}
	b.shuffle(moves)
	if b.depth == 0 || len(moves) == 1 {
		return moves[0], nil
	}

	s := &searcher{table: make(map[stateKey]ttEntry), maximizer: color}
	best, bestScore := moves[0], -infiniteScore
	alpha, beta := -infiniteScore, infiniteScore
	for _, m := range moves {
		score := s.search(engine.ApplyMove(board, m), color.Opponent(), b.depth-1, alpha, beta)
		if score > bestScore {
			best, bestScore = m, score
		}
		if bestScore > alpha {
			alpha = bestScore
		}
	}
	return best, nil
}

func (b *Bot) shuffle(moves []engine.Move) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rng.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
}

type boundType int

const (
	boundExact boundType = iota
	boundLower
	boundUpper
)

type ttEntry struct {
	depth int
	score int
	bound boundType
}

type stateKey struct {
	board  engine.Board
	toMove engine.Color
}

type searcher struct {
	table     map[stateKey]ttEntry
	maximizer engine.Color
}

// search scores board from the maximizer's point of view with toMove to play.
func (s *searcher) search(board engine.Board, toMove engine.Color, depth, alpha, beta int) int {
	alphaOrig, betaOrig := alpha, beta
	key := stateKey{board: board, toMove: toMove}
	if entry, ok := s.table[key]; ok && entry.depth >= depth {
		switch entry.bound {
		case boundExact:
			return entry.score
		case boundLower:
			alpha = max(alpha, entry.score)
		case boundUpper:
			beta = min(beta, entry.score)
		}
		if alpha >= beta {
			return entry.score
		}
	}

	legal := engine.GenerateLegalMoves(board, toMove)
	if len(legal) == 0 {
		// Prefer quicker wins and slower losses.
		score := winScore + depth
		if toMove == s.maximizer {
			score = -score
		}
		s.table[key] = ttEntry{depth: depth, score: score, bound: boundExact}
		return score
	}
	if depth == 0 {
		score := evaluate(board, s.maximizer)
		s.table[key] = ttEntry{depth: depth, score: score, bound: boundExact}
		return score
	}

	var best int
	if toMove == s.maximizer {
		best = -infiniteScore
		for _, m := range legal {
			best = max(best, s.search(engine.ApplyMove(board, m), toMove.Opponent(), depth-1, alpha, beta))
			alpha = max(alpha, best)
			if beta <= alpha {
				break
			}
		}
	} else {
		best = infiniteScore
		for _, m := range legal {
			best = min(best, s.search(engine.ApplyMove(board, m), toMove.Opponent(), depth-1, alpha, beta))
			beta = min(beta, best)
			if beta <= alpha {
				break
			}
		}
	}

	s.table[key] = ttEntry{depth: depth, score: best, bound: determineBound(best, alphaOrig, betaOrig)}
	return best
}

func determineBound(score, alphaOrig, betaOrig int) boundType {
	switch {
	case score <= alphaOrig:
		return boundUpper
	case score >= betaOrig:
		return boundLower
	default:
		return boundExact
	}
}

// evaluate is material plus a small bonus for men nearer promotion.
func evaluate(board engine.Board, maximizer engine.Color) int {
	score := 0
	for _, pl := range board.Pieces() {
		value := kingValue
		if pl.Piece.Type == engine.Man {
			value = manValue + advanceBonus*advancement(pl.Position, pl.Piece.Color)
		}
		if pl.Piece.Color == maximizer {
			score += value
		} else {
			score -= value
		}
	}
	return score
}

func advancement(p engine.Position, c engine.Color) int {
	if c == engine.White {
		return p.Row()
	}
	return engine.BoardSize - 1 - p.Row()
}
