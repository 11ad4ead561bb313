package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/drafti/drafti-backend/internal/middleware"
	"github.com/drafti/drafti-backend/internal/service"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

type createGameRequest struct {
	Mode  string       `json:"mode"`
	Level int          `json:"level"`
	Color engine.Color `json:"color"`
	FEN   string       `json:"fen"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	tag := middleware.LanguageOf(c.Locals(middleware.LanguageKey))
	playerID := middleware.PlayerID(c)

	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	gameID, err := gc.gameService.CreateGame(playerID, service.NewGameOptions{
		Mode:  req.Mode,
		Level: req.Level,
		Color: req.Color,
		FEN:   req.FEN,
	})
	if err != nil {
		return respondError(c, tag, err)
	}
	log.Infow("game created", "game", gameID, "player", playerID, "mode", req.Mode)

	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := middleware.PlayerID(c)

	color, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return respondError(c, middleware.LanguageOf(c.Locals(middleware.LanguageKey)), err)
	}
	log.Debugw("player joined", "game", gameID, "player", playerID, "color", color)

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return respondError(c, middleware.LanguageOf(c.Locals(middleware.LanguageKey)), err)
	}

	return c.JSON(gameState)
}

// LegalMoves lists the legal moves of the side to move, restricted to the
// piece on ?from= when given.
func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	tag := middleware.LanguageOf(c.Locals(middleware.LanguageKey))

	var from engine.Position
	if n := c.QueryInt("from", 0); n != 0 {
		p, err := engine.NewPosition(n)
		if err != nil {
			return respondError(c, tag, err)
		}
		from = p
	}

	moves, err := gc.gameService.LegalMoves(c.Params("gameId"), from)
	if err != nil {
		return respondError(c, tag, err)
	}

	return c.JSON(fiber.Map{
		"moves": moves,
	})
}

func (gc *GameController) Resign(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if err := gc.gameService.Resign(gameID, middleware.PlayerID(c)); err != nil {
		return respondError(c, middleware.LanguageOf(c.Locals(middleware.LanguageKey)), err)
	}

	return c.JSON(fiber.Map{
		"message": "Game resigned",
	})
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)

	if err := gc.gameService.JoinMatchmaking(playerID); err != nil {
		return respondError(c, middleware.LanguageOf(c.Locals(middleware.LanguageKey)), err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}
