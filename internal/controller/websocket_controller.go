package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/text/language"

	"github.com/drafti/drafti-backend/internal/middleware"
	"github.com/drafti/drafti-backend/internal/model"
	"github.com/drafti/drafti-backend/internal/service"
	"github.com/drafti/drafti-backend/internal/ws"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection serves /ws/game/:gameId until the client goes away.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID, _ := c.Locals(middleware.PlayerIDKey).(string)
	tag := middleware.LanguageOf(c.Locals(middleware.LanguageKey))

	game, err := wsc.gameService.GetGame(gameID)
	if err == nil {
		err = wsc.gameService.RegisterConnection(gameID, playerID, c)
	}
	if err != nil {
		log.Warnw("failed to register connection", "game", gameID, "player", playerID, "error", err)
		if msg, merr := ws.NewMessage(ws.MessageTypeError, errorPayload(tag, err)); merr == nil {
			_ = c.WriteJSON(msg)
		}
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnw("websocket read failed", "game", gameID, "player", playerID, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			wsc.sendError(game, c, tag, fmt.Errorf("malformed message: %w", err))
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			log.Debugw("message rejected", "game", gameID, "player", playerID, "type", msg.Type, "error", err)
			wsc.sendError(game, c, tag, err)
		}
	}
}

func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return fmt.Errorf("malformed move: %w", err)
		}
		_, err := wsc.gameService.HandleMove(gameID, playerID, move)
		return err

	case ws.MessageTypeResign:
		return wsc.gameService.Resign(gameID, playerID)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// sendError goes through the game so it cannot interleave with a broadcast.
func (wsc *WebSocketController) sendError(game *model.Game, c *websocket.Conn, tag language.Tag, err error) {
	msg, merr := ws.NewMessage(ws.MessageTypeError, errorPayload(tag, err))
	if merr != nil {
		log.Errorw("failed to encode error", "error", merr)
		return
	}
	if werr := game.Send(c, msg); werr != nil {
		log.Debugw("failed to send error", "game", game.ID, "error", werr)
	}
}

// HandleMatchmaking serves /ws/matchmaking. The player is queued and the
// connection receives a single matchFound message once paired.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals(middleware.PlayerIDKey).(string)
	tag := middleware.LanguageOf(c.Locals(middleware.LanguageKey))

	ch := make(chan string, 1)
	if err := wsc.gameService.RegisterMatchmakingChannel(playerID, ch); err != nil {
		log.Warnw("failed to register matchmaking channel", "player", playerID, "error", err)
		return
	}
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	// Joining over REST first is allowed.
	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		if msg, merr := ws.NewMessage(ws.MessageTypeError, errorPayload(tag, err)); merr == nil {
			_ = c.WriteJSON(msg)
		}
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			// Replaced by a newer connection.
			return
		}
		if err := c.WriteJSON(ws.Message{Type: ws.MessageTypeMatchFound, Payload: json.RawMessage(event)}); err != nil {
			log.Warnw("failed to deliver match", "player", playerID, "error", err)
		}
	case <-gone:
		log.Debugw("player left matchmaking", "player", playerID)
	}
}
