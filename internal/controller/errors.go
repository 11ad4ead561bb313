package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/text/language"

	"github.com/drafti/drafti-backend/internal/bot"
	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/drafti/drafti-backend/internal/i18n"
	"github.com/drafti/drafti-backend/internal/model"
	"github.com/drafti/drafti-backend/internal/service"
	"github.com/drafti/drafti-backend/internal/ws"
)

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, model.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrGameFull),
		errors.Is(err, model.ErrGameExists),
		errors.Is(err, model.ErrAlreadyQueued):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrNotInGame),
		errors.Is(err, model.ErrNotAuthorized):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, engine.ErrInvalidFEN),
		errors.Is(err, engine.ErrInvalidNotation),
		errors.Is(err, engine.ErrInvalidPosition),
		errors.Is(err, engine.ErrInvalidSquare),
		errors.Is(err, bot.ErrInvalidLevel):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// errorPayload builds the body shared by REST responses and WebSocket error
// messages.
func errorPayload(tag language.Tag, err error) ws.ErrorPayload {
	payload := ws.ErrorPayload{Kind: ws.ErrorKindRequest, Message: i18n.Message(tag, err)}
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		payload.Kind = verr.Kind
		payload.Details = verr
	}
	return payload
}

func respondError(c *fiber.Ctx, tag language.Tag, err error) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		log.Errorw("request failed", "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}
	p := errorPayload(tag, err)
	return c.Status(status).JSON(fiber.Map{
		"error":   p.Message,
		"kind":    p.Kind,
		"details": p.Details,
	})
}
