package model

import "errors"

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrGameExists    = errors.New("game already exists")
	ErrGameFull      = errors.New("game is full")
	ErrNotInGame     = errors.New("player not in game")
	ErrAlreadyQueued = errors.New("player already in queue")
	ErrNotAuthorized = errors.New("not authorized to join this game")
)
