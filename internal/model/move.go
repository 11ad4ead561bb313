package model

import (
	"fmt"

	"github.com/drafti/drafti-backend/internal/engine"
)

// WSMove is the payload of a "move" message: either from/to with optional
// captures, or a notation string such as "10x14x23x28".
type WSMove struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Captures []int  `json:"captures,omitempty"`
	Notation string `json:"notation,omitempty"`
}

// ToRequest converts the payload. Out-of-range squares are passed through so
// that validation can report them.
func (m WSMove) ToRequest() (engine.MoveRequest, error) {
	if m.Notation != "" {
		req, err := engine.ParseNotation(m.Notation)
		if err != nil {
			return engine.MoveRequest{}, fmt.Errorf("move payload: %w", err)
		}
		return req, nil
	}
	req := engine.MoveRequest{From: engine.Position(m.From), To: engine.Position(m.To)}
	for _, c := range m.Captures {
		req.Captures = append(req.Captures, engine.Position(c))
	}
	return req, nil
}

// Ply is one applied move in the history.
type Ply struct {
	Player    engine.Color      `json:"player"`
	From      engine.Position   `json:"from"`
	To        engine.Position   `json:"to"`
	Path      []engine.Position `json:"path,omitempty"`
	Captured  []CapturedPiece   `json:"captured"`
	Promotion bool              `json:"promotion"`
	Notation  string            `json:"notation"`
	TimeLeft  int               `json:"timeLeft"`
}

type CapturedPiece struct {
	Position engine.Position `json:"position"`
	Piece    engine.Piece    `json:"piece"`
}

// Move pairs White's ply with Black's reply. BlackPly is nil until Black
// has moved.
type Move struct {
	WhitePly *Ply `json:"whitePly"`
	BlackPly *Ply `json:"blackPly"`
}

type SimpleMove struct {
	From engine.Position `json:"from"`
	To   engine.Position `json:"to"`
}
