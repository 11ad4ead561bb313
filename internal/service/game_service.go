package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/drafti/drafti-backend/internal/model"
)

const (
	ModePvP = "pvp"
	ModeAI  = "ai"
)

var ErrInvalidMode = errors.New("invalid game mode")

// NewGameOptions describes a game to create. FEN, when set, replaces the
// initial setup.
type NewGameOptions struct {
	Mode  string
	Level int
	// Color is the creator's color in an AI game.
	Color engine.Color
	FEN   string
}

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) JoinGame(gameID string, playerID string) (engine.Color, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

// CreateGame creates a game and returns its ID. In an AI game the creator is
// seated immediately; in a PvP game both players join afterwards.
func (gs *GameService) CreateGame(playerID string, opts NewGameOptions) (string, error) {
	gameID := uuid.New().String()

	var modelOpts []model.Option
	if opts.FEN != "" {
		b, toMove, err := engine.ParseFEN(opts.FEN)
		if err != nil {
			return "", err
		}
		modelOpts = append(modelOpts, model.WithPosition(b, toMove))
	}

	var err error
	switch opts.Mode {
	case "", ModePvP:
		err = gs.gameManager.CreateGame(gameID, modelOpts...)
	case ModeAI:
		err = gs.gameManager.CreateAIGame(gameID, playerID, opts.Level, opts.Color, modelOpts...)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) GetGame(gameID string) (*model.Game, error) {
	return gs.gameManager.GetGame(gameID)
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(gameID)
}

func (gs *GameService) LegalMoves(gameID string, from engine.Position) ([]engine.Move, error) {
	return gs.gameManager.LegalMoves(gameID, from)
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.WSMove) (engine.Move, error) {
	req, err := move.ToRequest()
	if err != nil {
		return engine.Move{}, err
	}
	return gs.gameManager.MakeMove(gameID, playerID, req)
}

func (gs *GameService) Resign(gameID string, playerID string) error {
	return gs.gameManager.Resign(gameID, playerID)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	return gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
