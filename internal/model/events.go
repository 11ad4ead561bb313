package model

import "github.com/drafti/drafti-backend/internal/engine"

// MatchFoundEvent is pushed to a queued player once an opponent is found.
type MatchFoundEvent struct {
	GameID string       `json:"gameId"`
	Color  engine.Color `json:"color"`
}
